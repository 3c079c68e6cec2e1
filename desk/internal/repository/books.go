package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

var bookColumns = []string{"id", "title", "author", "description", "image_filename", "genre", "language", "barcode", "status"}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, errors.Wrap(err, "ListBooks")
	}
	return books, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return getBook(ctx, r.db, sq.Eq{"id": id}, false)
}

func (r *repository) GetBookByBarcode(ctx context.Context, barcode string) (model.Book, error) {
	return getBook(ctx, r.db, sq.Eq{"barcode": barcode}, false)
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "description", "image_filename", "genre", "language", "barcode").
		Values(book.Title, book.Author, book.Description, book.ImageFilename, book.Genre, book.Language, book.Barcode).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var created model.Book
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == barcodeUniqueConstraint {
			return model.Book{}, errs.ErrDuplicateBarcode
		}
		r.log.Error("CreateBook", zap.String("q", q), zap.Error(err))
		return model.Book{}, errors.Wrap(err, "CreateBook")
	}
	return created, nil
}

// getBook reads one book; forUpdate locks the row until the surrounding transaction ends.
func getBook(ctx context.Context, db sqlx.QueryerContext, where sq.Eq, forUpdate bool) (model.Book, error) {
	sb := qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		Limit(1)
	if forUpdate {
		sb = sb.Suffix("for update")
	}
	q, args, err := sb.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := sqlx.GetContext(ctx, db, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, errors.Wrap(err, "getBook")
	}
	return book, nil
}

func setBookStatus(ctx context.Context, tx *sqlx.Tx, bookID int64, status model.BookStatus) error {
	q, args, err := qb.Update(booksTableName).
		Set("status", status).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "setBookStatus")
	}
	return nil
}
