package service

import (
	"context"
	"strings"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

func (s *Service) PostReview(ctx context.Context, userID int64, req model.PostReviewRequest) (model.Review, error) {
	if req.BookID <= 0 || strings.TrimSpace(req.ReviewText) == "" {
		return model.Review{}, errs.ErrValidation
	}
	now := s.now().UTC()
	review, err := s.repo.CreateReview(ctx, model.Review{
		BookID:     req.BookID,
		UserID:     userID,
		ReviewText: req.ReviewText,
		Timestamp:  now,
	})
	if err != nil {
		return model.Review{}, err
	}

	event := kafka.NewEvent(kafka.EventReviewPosted, userID, now)
	event.BookID = review.BookID
	event.ReviewID = review.ID
	s.publish(ctx, event)
	return review, nil
}

// ToggleLike flips the caller's membership in the review's liker set and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, reviewID, userID int64) (model.Review, bool, error) {
	review, liked, err := s.repo.ToggleLike(ctx, reviewID, userID)
	if err != nil {
		return model.Review{}, false, err
	}

	typ := kafka.EventReviewUnliked
	if liked {
		typ = kafka.EventReviewLiked
	}
	event := kafka.NewEvent(typ, userID, s.now())
	event.BookID = review.BookID
	event.ReviewID = review.ID
	s.publish(ctx, event)
	return review, liked, nil
}

func (s *Service) ListReviews(ctx context.Context) ([]model.Review, error) {
	return s.repo.ListReviews(ctx)
}
