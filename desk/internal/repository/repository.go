package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)

	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	GetBookByBarcode(ctx context.Context, barcode string) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)

	CheckIn(ctx context.Context, studentID string, bookID int64, now, due time.Time) (model.Loan, error)
	CheckOut(ctx context.Context, bookID int64, now time.Time) (model.Loan, error)
	ListActiveLoans(ctx context.Context) ([]model.Loan, error)
	ListUserLoans(ctx context.Context, userID int64) ([]model.Loan, error)

	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	ToggleLike(ctx context.Context, reviewID, userID int64) (review model.Review, liked bool, err error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName       = `users`
	booksTableName       = `books`
	loansTableName       = `user_reads`
	reviewsTableName     = `reviews`
	reviewLikesTableName = `review_likes`

	usernameUniqueConstraint  = `users_username_key`
	studentIDUniqueConstraint = `users_student_id_key`
	barcodeUniqueConstraint   = `books_barcode_key`
	oneCurrentLoanIndex       = `user_reads_one_current_per_book`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// withTx runs fn in a single transaction: commit on nil, rollback otherwise.
func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("tx.Rollback", zap.Error(rbErr))
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
