package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

// PostReview godoc
// @Summary Review a book
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.PostReviewRequest true "review"
// @Success 201 {object} model.Review
// @Failure 400,401,404 {object} echo.HTTPError
// @Router /api/reviews [post]
func (h *Handler) PostReview(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return h.httpError(errs.ErrTokenMissing)
	}
	var req model.PostReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}
	review, err := h.svc.PostReview(c.Request().Context(), user.ID, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

// ListReviews godoc
// @Summary All reviews, newest first
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Review
// @Failure 401,403 {object} echo.HTTPError
// @Router /api/reviews [get]
func (h *Handler) ListReviews(c echo.Context) error {
	reviews, err := h.svc.ListReviews(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// ToggleLike godoc
// @Summary Like a review, or remove an existing like
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param id path int true "review id"
// @Success 200 {object} model.LikeResponse
// @Failure 401,403,404 {object} echo.HTTPError
// @Router /api/reviews/{id}/like [post]
func (h *Handler) ToggleLike(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return h.httpError(errs.ErrTokenMissing)
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.httpError(errs.ErrReviewNotFound)
	}
	review, liked, err := h.svc.ToggleLike(c.Request().Context(), id, user.ID)
	if err != nil {
		return h.httpError(err)
	}
	msg := "Like removed"
	if liked {
		msg = "Review liked"
	}
	return c.JSON(http.StatusOK, model.LikeResponse{Message: msg, Review: review})
}
