package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

// CheckIn lends an available book to a student for the configured loan period.
func (s *Service) CheckIn(ctx context.Context, req model.CheckInRequest) (model.Loan, error) {
	if req.StudentID == "" || req.BookID <= 0 {
		return model.Loan{}, errs.ErrValidation
	}
	now := s.now().UTC()
	loan, err := s.repo.CheckIn(ctx, req.StudentID, req.BookID, now, now.Add(s.cfg.LoanPeriod))
	if err != nil {
		return model.Loan{}, err
	}

	event := kafka.NewEvent(kafka.EventCheckIn, loan.UserID, now)
	event.BookID = loan.BookID
	event.LoanID = loan.ID
	s.publish(ctx, event)
	return loan, nil
}

// CheckOut completes the current loan of a borrowed book.
func (s *Service) CheckOut(ctx context.Context, req model.CheckOutRequest) (model.Loan, error) {
	if req.BookID <= 0 {
		return model.Loan{}, errs.ErrValidation
	}
	now := s.now().UTC()
	loan, err := s.repo.CheckOut(ctx, req.BookID, now)
	if err != nil {
		if errors.Is(err, errs.ErrNoActiveLoan) {
			s.log.Error("borrowed book has no current loan", zap.Int64("book_id", req.BookID))
		}
		return model.Loan{}, err
	}

	event := kafka.NewEvent(kafka.EventCheckOut, loan.UserID, now)
	event.BookID = loan.BookID
	event.LoanID = loan.ID
	s.publish(ctx, event)
	return loan, nil
}

func (s *Service) ListActiveLoans(ctx context.Context) ([]model.Loan, error) {
	return s.repo.ListActiveLoans(ctx)
}

func (s *Service) ListUserLoans(ctx context.Context, userID int64) ([]model.Loan, error) {
	return s.repo.ListUserLoans(ctx, userID)
}
