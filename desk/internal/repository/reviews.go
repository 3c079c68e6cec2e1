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

type reviewRow struct {
	ID           int64     `db:"id"`
	ReviewText   string    `db:"review_text"`
	Timestamp    time.Time `db:"timestamp"`
	BookID       int64     `db:"book_id"`
	UserID       int64     `db:"user_id"`
	BookTitle    string    `db:"book_title"`
	ReviewerName string    `db:"reviewer_name"`
}

func (row reviewRow) toModel() model.Review {
	return model.Review{
		ID:           row.ID,
		ReviewText:   row.ReviewText,
		Timestamp:    row.Timestamp,
		BookID:       row.BookID,
		UserID:       row.UserID,
		BookTitle:    row.BookTitle,
		ReviewerName: row.ReviewerName,
		Likes:        make([]int64, 0),
	}
}

func reviewSelect() sq.SelectBuilder {
	return qb.Select(
		"r.id", "r.review_text", "r.timestamp", "r.book_id", "r.user_id",
		"b.title as book_title", "u.username as reviewer_name",
	).
		From(reviewsTableName + " r").
		Join(booksTableName + " b on b.id = r.book_id").
		Join(usersTableName + " u on u.id = r.user_id")
}

func (r *repository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	var created model.Review
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getBook(ctx, tx, sq.Eq{"id": review.BookID}, false); err != nil {
			return err
		}
		q, args, err := qb.Insert(reviewsTableName).
			Columns("review_text", "timestamp", "book_id", "user_id").
			Values(review.ReviewText, review.Timestamp, review.BookID, review.UserID).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		var id int64
		if err := tx.GetContext(ctx, &id, q, args...); err != nil {
			return errors.Wrap(err, "insert review")
		}
		created, err = getReview(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Review{}, err
	}
	return created, nil
}

func (r *repository) ListReviews(ctx context.Context) ([]model.Review, error) {
	q, args, err := reviewSelect().
		OrderBy("r.timestamp desc", "r.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "ListReviews")
	}
	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toModel())
	}
	if err := attachLikes(ctx, r.db, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ToggleLike removes the (user, review) like when present and adds it otherwise.
// The review row is locked so concurrent toggles by the same user serialize.
func (r *repository) ToggleLike(ctx context.Context, reviewID, userID int64) (model.Review, bool, error) {
	var (
		review model.Review
		liked  bool
	)
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		q, args, err := qb.Select("id").
			From(reviewsTableName).
			Where(sq.Eq{"id": reviewID}).
			Suffix("for update").
			ToSql()
		if err != nil {
			return err
		}
		var id int64
		if err := tx.GetContext(ctx, &id, q, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrReviewNotFound
			}
			return errors.Wrap(err, "lock review")
		}

		q, args, err = qb.Delete(reviewLikesTableName).
			Where(sq.Eq{"user_id": userID, "review_id": reviewID}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return errors.Wrap(err, "delete like")
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "RowsAffected")
		}

		if removed == 0 {
			q, args, err = qb.Insert(reviewLikesTableName).
				Columns("user_id", "review_id").
				Values(userID, reviewID).
				Suffix("on conflict do nothing").
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return errors.Wrap(err, "insert like")
			}
			liked = true
		}

		review, err = getReview(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		return model.Review{}, false, err
	}
	return review, liked, nil
}

func getReview(ctx context.Context, db sqlx.QueryerContext, id int64) (model.Review, error) {
	q, args, err := reviewSelect().
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return model.Review{}, err
	}
	var row reviewRow
	if err := sqlx.GetContext(ctx, db, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, errs.ErrReviewNotFound
		}
		return model.Review{}, errors.Wrap(err, "getReview")
	}
	reviews := []model.Review{row.toModel()}
	if err := attachLikes(ctx, db, reviews); err != nil {
		return model.Review{}, err
	}
	return reviews[0], nil
}

// attachLikes fills Likes with the liking user ids, ascending.
func attachLikes(ctx context.Context, db sqlx.QueryerContext, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reviews))
	index := make(map[int64]int, len(reviews))
	for i := range reviews {
		ids = append(ids, reviews[i].ID)
		index[reviews[i].ID] = i
	}

	q, args, err := qb.Select("user_id", "review_id").
		From(reviewLikesTableName).
		Where(sq.Eq{"review_id": ids}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return err
	}
	var likes []model.ReviewLike
	if err := sqlx.SelectContext(ctx, db, &likes, q, args...); err != nil {
		return errors.Wrap(err, "select likes")
	}
	for _, like := range likes {
		i := index[like.ReviewID]
		reviews[i].Likes = append(reviews[i].Likes, like.UserID)
	}
	return nil
}
