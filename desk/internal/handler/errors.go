package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
)

func (h *Handler) httpError(err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrTokenMissing),
		errors.Is(err, errs.ErrTokenMalformed),
		errors.Is(err, errs.ErrTokenInvalid),
		errors.Is(err, errs.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrBookNotFound),
		errors.Is(err, errs.ErrStudentNotFound),
		errors.Is(err, errs.ErrReviewNotFound),
		errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrDuplicateUsername),
		errors.Is(err, errs.ErrDuplicateStudentID),
		errors.Is(err, errs.ErrDuplicateBarcode),
		errors.Is(err, errs.ErrAlreadyBorrowed),
		errors.Is(err, errs.ErrNotBorrowed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrNoActiveLoan):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		h.log.Error("internal error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
