package handler

import (
	"context"

	"github.com/Astemirdum/lending-desk/desk/internal/model"
	"github.com/Astemirdum/lending-desk/desk/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type DeskService interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Resolve(ctx context.Context, authorization string) (model.User, error)

	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	GetBookByBarcode(ctx context.Context, barcode string) (model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest, image *model.Upload) (model.Book, error)

	CheckIn(ctx context.Context, req model.CheckInRequest) (model.Loan, error)
	CheckOut(ctx context.Context, req model.CheckOutRequest) (model.Loan, error)
	ListActiveLoans(ctx context.Context) ([]model.Loan, error)
	ListUserLoans(ctx context.Context, userID int64) ([]model.Loan, error)

	PostReview(ctx context.Context, userID int64, req model.PostReviewRequest) (model.Review, error)
	ToggleLike(ctx context.Context, reviewID, userID int64) (model.Review, bool, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
}

var _ DeskService = (*service.Service)(nil)
