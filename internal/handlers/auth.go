package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/models"
)

func (h *Handler) Register(c echo.Context) error {
	var in models.RegisterInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	user, err := h.accounts.Register(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, http.StatusCreated, user.Public(), "Successfully registered")
}

func (h *Handler) Login(c echo.Context) error {
	var in models.LoginInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	user, err := h.accounts.Authenticate(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, http.StatusOK, models.Token{Token: token, User: user.Public()}, "Successfully logged in")
}
