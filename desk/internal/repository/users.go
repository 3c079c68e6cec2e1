package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

var userColumns = []string{"id", "username", "password_hash", "role", "student_id", "created_at"}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	q, args, err := qb.Insert(usersTableName).
		Columns("username", "password_hash", "role", "student_id").
		Values(user.Username, user.PasswordHash, user.Role, user.StudentID).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var created model.User
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case usernameUniqueConstraint:
				return model.User{}, errs.ErrDuplicateUsername
			case studentIDUniqueConstraint:
				return model.User{}, errs.ErrDuplicateStudentID
			}
		}
		r.log.Error("CreateUser", zap.String("q", q), zap.Error(err))
		return model.User{}, errors.Wrap(err, "CreateUser")
	}
	return created, nil
}

func (r *repository) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"username": username})
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *repository) getUser(ctx context.Context, where sq.Eq) (model.User, error) {
	q, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, errors.Wrap(err, "getUser")
	}
	return user, nil
}
