package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

// CheckIn godoc
// @Summary Lend a book to a student
// @Tags lending
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.CheckInRequest true "student and book"
// @Success 201 {object} model.LoanResponse
// @Failure 400,401,403,404,409 {object} echo.HTTPError
// @Router /api/check-in [post]
func (h *Handler) CheckIn(c echo.Context) error {
	var req model.CheckInRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}
	loan, err := h.svc.CheckIn(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, model.LoanResponse{
		Message: "Book checked in successfully",
		Reading: loan,
	})
}

// CheckOut godoc
// @Summary Return a borrowed book
// @Tags lending
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.CheckOutRequest true "book"
// @Success 200 {object} model.LoanResponse
// @Failure 400,401,403,404,409,500 {object} echo.HTTPError
// @Router /api/check-out [post]
func (h *Handler) CheckOut(c echo.Context) error {
	var req model.CheckOutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}
	loan, err := h.svc.CheckOut(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.LoanResponse{
		Message: "Book checked out successfully",
		Reading: loan,
	})
}

// ActiveReadings godoc
// @Summary Current loans ordered by due date
// @Tags lending
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Loan
// @Failure 401,403 {object} echo.HTTPError
// @Router /api/readings/active [get]
func (h *Handler) ActiveReadings(c echo.Context) error {
	loans, err := h.svc.ListActiveLoans(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

// MyReadings godoc
// @Summary Loans of the calling user, newest first
// @Tags lending
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Loan
// @Failure 401 {object} echo.HTTPError
// @Router /api/readings/me [get]
func (h *Handler) MyReadings(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return h.httpError(errs.ErrTokenMissing)
	}
	loans, err := h.svc.ListUserLoans(c.Request().Context(), user.ID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}
