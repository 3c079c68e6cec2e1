package app

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

const (
	DefaultAdminUsername  = "admin"
	DefaultAdminPassword  = "admin"
	DefaultAdminStudentID = "ADMIN001"
)

type Seeder interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest, image *model.Upload) (model.Book, error)
	SignUp(ctx context.Context, req model.SignUpRequest) (model.User, error)
}

// Seed loads books from a JSON array into an empty catalog and ensures the default admin exists.
// A non-empty catalog is left untouched so the command can be rerun.
func Seed(ctx context.Context, svc Seeder, books io.Reader, log *zap.Logger) error {
	if books != nil {
		if err := seedBooks(ctx, svc, books, log); err != nil {
			return err
		}
	}

	notStudent := false
	_, err := svc.SignUp(ctx, model.SignUpRequest{
		Username:  DefaultAdminUsername,
		Password:  DefaultAdminPassword,
		IsStudent: &notStudent,
		StudentID: DefaultAdminStudentID,
	})
	switch {
	case errors.Is(err, errs.ErrDuplicateUsername):
		log.Info("default admin already exists")
	case err != nil:
		return errors.Wrap(err, "create default admin")
	default:
		log.Info("default admin created", zap.String("username", DefaultAdminUsername))
	}
	return nil
}

func seedBooks(ctx context.Context, svc Seeder, books io.Reader, log *zap.Logger) error {
	var reqs []model.CreateBookRequest
	if err := json.NewDecoder(books).Decode(&reqs); err != nil {
		return errors.Wrap(err, "decode books")
	}
	existing, err := svc.ListBooks(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("catalog is not empty, skipping books", zap.Int("books", len(existing)))
		return nil
	}
	for _, req := range reqs {
		if _, err := svc.CreateBook(ctx, req, nil); err != nil {
			return errors.Wrapf(err, "create book %q", req.Title)
		}
	}
	log.Info("books seeded", zap.Int("count", len(reqs)))
	return nil
}
