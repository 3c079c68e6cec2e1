package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

// SignUp godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param input body model.SignUpRequest true "credentials"
// @Success 201 {object} model.SignUpResponse
// @Failure 400 {object} echo.HTTPError
// @Failure 409 {object} echo.HTTPError
// @Router /signup [post]
func (h *Handler) SignUp(c echo.Context) error {
	var req model.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}
	user, err := h.svc.SignUp(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, model.SignUpResponse{
		Message: "User created successfully",
		User:    user,
	})
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body model.LoginRequest true "credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} echo.HTTPError
// @Router /login [post]
func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} echo.HTTPError
// @Router /api/me [get]
func (h *Handler) Me(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return h.httpError(errs.ErrTokenMissing)
	}
	return c.JSON(http.StatusOK, user)
}
