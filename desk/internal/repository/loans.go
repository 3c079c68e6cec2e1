package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

type loanRow struct {
	ID             int64            `db:"id"`
	UserID         int64            `db:"user_id"`
	BookID         int64            `db:"book_id"`
	BorrowedAt     time.Time        `db:"borrowed_at"`
	DueDate        time.Time        `db:"due_date"`
	Status         model.LoanStatus `db:"status"`
	CompletionDate *time.Time       `db:"completion_date"`
	BookTitle      string           `db:"book_title"`
	BookAuthor     string           `db:"book_author"`
	BookBarcode    *string          `db:"book_barcode"`
	Username       string           `db:"username"`
	StudentID      *string          `db:"student_id"`
}

func (row loanRow) toModel() model.Loan {
	return model.Loan{
		ID:             row.ID,
		UserID:         row.UserID,
		BookID:         row.BookID,
		BorrowedAt:     row.BorrowedAt,
		DueDate:        row.DueDate,
		Status:         row.Status,
		CompletionDate: row.CompletionDate,
		Book: model.LoanBook{
			ID:      row.BookID,
			Title:   row.BookTitle,
			Author:  row.BookAuthor,
			Barcode: row.BookBarcode,
		},
		User: model.LoanUser{
			ID:        row.UserID,
			Username:  row.Username,
			StudentID: row.StudentID,
		},
	}
}

func loanSelect() sq.SelectBuilder {
	return qb.Select(
		"l.id", "l.user_id", "l.book_id", "l.borrowed_at", "l.due_date", "l.status", "l.completion_date",
		"b.title as book_title", "b.author as book_author", "b.barcode as book_barcode",
		"u.username", "u.student_id",
	).
		From(loansTableName + " l").
		Join(booksTableName + " b on b.id = l.book_id").
		Join(usersTableName + " u on u.id = l.user_id")
}

// CheckIn lends a book to the student in one transaction.
// Checks run in a fixed order: student, book (row locked), availability.
func (r *repository) CheckIn(ctx context.Context, studentID string, bookID int64, now, due time.Time) (model.Loan, error) {
	var loan model.Loan
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		q, args, err := qb.Select("id").
			From(usersTableName).
			Where(sq.Eq{"student_id": studentID}).
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}
		var userID int64
		if err := tx.GetContext(ctx, &userID, q, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrStudentNotFound
			}
			return errors.Wrap(err, "select student")
		}

		book, err := getBook(ctx, tx, sq.Eq{"id": bookID}, true)
		if err != nil {
			return err
		}
		if book.Status != model.BookAvailable {
			return errs.ErrAlreadyBorrowed
		}

		q, args, err = qb.Insert(loansTableName).
			Columns("user_id", "book_id", "borrowed_at", "due_date", "status").
			Values(userID, bookID, now, due, model.LoanCurrent).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		var loanID int64
		if err := tx.GetContext(ctx, &loanID, q, args...); err != nil {
			if constraint, ok := uniqueViolation(err); ok && constraint == oneCurrentLoanIndex {
				return errs.ErrAlreadyBorrowed
			}
			return errors.Wrap(err, "insert loan")
		}

		if err := setBookStatus(ctx, tx, bookID, model.BookBorrowed); err != nil {
			return err
		}
		loan, err = getLoan(ctx, tx, loanID)
		return err
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// CheckOut completes the current loan of a borrowed book in one transaction.
// A borrowed book without a current loan is reported as errs.ErrNoActiveLoan and left untouched.
func (r *repository) CheckOut(ctx context.Context, bookID int64, now time.Time) (model.Loan, error) {
	var loan model.Loan
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		book, err := getBook(ctx, tx, sq.Eq{"id": bookID}, true)
		if err != nil {
			return err
		}
		if book.Status != model.BookBorrowed {
			return errs.ErrNotBorrowed
		}

		q, args, err := qb.Update(loansTableName).
			Set("status", model.LoanCompleted).
			Set("completion_date", now).
			Where(sq.Eq{"book_id": bookID, "status": model.LoanCurrent}).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		var loanID int64
		if err := tx.GetContext(ctx, &loanID, q, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNoActiveLoan
			}
			return errors.Wrap(err, "complete loan")
		}

		if err := setBookStatus(ctx, tx, bookID, model.BookAvailable); err != nil {
			return err
		}
		loan, err = getLoan(ctx, tx, loanID)
		return err
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) ListActiveLoans(ctx context.Context) ([]model.Loan, error) {
	return listLoans(ctx, r.db, loanSelect().
		Where(sq.Eq{"l.status": model.LoanCurrent}).
		OrderBy("l.due_date", "l.id"))
}

func (r *repository) ListUserLoans(ctx context.Context, userID int64) ([]model.Loan, error) {
	return listLoans(ctx, r.db, loanSelect().
		Where(sq.Eq{"l.user_id": userID}).
		OrderBy("l.borrowed_at desc", "l.id desc"))
}

func listLoans(ctx context.Context, db sqlx.QueryerContext, sb sq.SelectBuilder) ([]model.Loan, error) {
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []loanRow
	if err := sqlx.SelectContext(ctx, db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "listLoans")
	}
	loans := make([]model.Loan, 0, len(rows))
	for _, row := range rows {
		loans = append(loans, row.toModel())
	}
	return loans, nil
}

func getLoan(ctx context.Context, db sqlx.QueryerContext, id int64) (model.Loan, error) {
	q, args, err := loanSelect().
		Where(sq.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	var row loanRow
	if err := sqlx.GetContext(ctx, db, &row, q, args...); err != nil {
		return model.Loan{}, errors.Wrap(err, "getLoan")
	}
	return row.toModel(), nil
}
