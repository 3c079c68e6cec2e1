package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	"github.com/Astemirdum/lending-desk/desk/internal/service"
	"github.com/Astemirdum/lending-desk/pkg/auth"
)

const userKey = "user"

// Authenticate resolves the bearer token into a user and stores it on the context.
func (h *Handler) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := h.svc.Resolve(c.Request().Context(), c.Request().Header.Get(auth.AuthorizationHeader))
		if err != nil {
			return h.httpError(err)
		}
		c.Set(userKey, user)
		return next(c)
	}
}

// RequireRole must run after Authenticate.
func (h *Handler) RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := currentUser(c)
			if !ok {
				return h.httpError(errs.ErrTokenMissing)
			}
			if err := service.RequireRole(user, role); err != nil {
				return h.httpError(err)
			}
			return next(c)
		}
	}
}

func currentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get(userKey).(model.User)
	return user, ok
}
