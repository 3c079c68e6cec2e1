package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/imagestore"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

const imagesPath = "/uploads/images/"

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i] = s.withImageURL(books[i])
	}
	return books, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	return s.withImageURL(book), nil
}

func (s *Service) GetBookByBarcode(ctx context.Context, barcode string) (model.Book, error) {
	if barcode == "" {
		return model.Book{}, errs.ErrBookNotFound
	}
	book, err := s.repo.GetBookByBarcode(ctx, barcode)
	if err != nil {
		return model.Book{}, err
	}
	return s.withImageURL(book), nil
}

// CreateBook stores the optional image first and removes it again if the insert fails.
func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest, image *model.Upload) (model.Book, error) {
	if req.Title == "" || req.Author == "" {
		return model.Book{}, fmt.Errorf("%w: title and author are required", errs.ErrValidation)
	}
	book := model.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: optional(req.Description),
		Genre:       optional(req.Genre),
		Language:    optional(req.Language),
		Barcode:     optional(req.Barcode),
		Status:      model.BookAvailable,
	}
	if req.ImageFilename != "" {
		book.ImageFilename = optional(imagestore.SanitizeFilename(req.ImageFilename))
	}

	var stored string
	if image != nil && image.Filename != "" {
		name, err := s.images.Save(image.Filename, image.Content)
		if err != nil {
			if errors.Is(err, imagestore.ErrInvalidName) || errors.Is(err, imagestore.ErrTooLarge) {
				return model.Book{}, fmt.Errorf("%w: %v", errs.ErrValidation, err)
			}
			return model.Book{}, err
		}
		stored = name
		book.ImageFilename = &stored
	}

	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		if stored != "" {
			s.images.Remove(stored)
		}
		return model.Book{}, err
	}
	s.log.Info("book created", zap.Int64("id", created.ID), zap.String("title", created.Title))
	return s.withImageURL(created), nil
}

func (s *Service) withImageURL(book model.Book) model.Book {
	if book.ImageFilename == nil || *book.ImageFilename == "" {
		book.ImageURL = nil
		return book
	}
	u := strings.TrimRight(s.cfg.PublicURL, "/") + imagesPath + url.PathEscape(*book.ImageFilename)
	book.ImageURL = &u
	return book
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
