package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	"github.com/Astemirdum/lending-desk/pkg/auth"
)

// bcrypt rejects longer input
const maxPasswordBytes = 72

// SignUp stores a new user with a bcrypt password hash. Usernames are matched exactly.
func (s *Service) SignUp(ctx context.Context, req model.SignUpRequest) (model.User, error) {
	if req.Username == "" || req.Password == "" {
		return model.User{}, errs.ErrValidation
	}
	if len(req.Password) > maxPasswordBytes {
		return model.User{}, fmt.Errorf("%w: password is longer than %d bytes", errs.ErrValidation, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.HashCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "bcrypt.GenerateFromPassword")
	}
	user := model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role(),
	}
	if req.StudentID != "" {
		studentID := req.StudentID
		user.StudentID = &studentID
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user created", zap.Int64("id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

// Login verifies credentials and issues a session token.
// Unknown usernames and wrong passwords fail with the same error.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return model.LoginResponse{}, errs.ErrInvalidCredentials
	}
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			return model.LoginResponse{}, errs.ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.LoginResponse{}, errs.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.LoginResponse{}, err
	}
	return model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Resolve turns an Authorization header into the calling user.
func (s *Service) Resolve(ctx context.Context, authorization string) (model.User, error) {
	token, err := auth.ExtractToken(authorization)
	if err != nil {
		return model.User{}, err
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return model.User{}, errs.ErrTokenInvalid
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrTokenInvalid
		}
		return model.User{}, err
	}
	return user, nil
}

func RequireRole(user model.User, role model.Role) error {
	if !user.HasRole(role) {
		return errs.ErrForbidden
	}
	return nil
}
