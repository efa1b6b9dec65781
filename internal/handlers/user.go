package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/auth"
	"github.com/beefriend/beefriend-api/internal/models"
)

func (h *Handler) GetCurrentUser(c echo.Context) error {
	user, err := h.accounts.Get(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user.Public(), "")
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var in models.ProfileInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user.Public(), "Your profile has been updated")
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var in models.PasswordInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), auth.UserID(c), in); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil, "Your password has been updated")
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	if err := h.accounts.DeleteAccount(c.Request().Context(), auth.UserID(c)); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil, "Your account has been deleted")
}

// ListUsers returns every other account without credentials.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.accounts.ListOthers(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return respond(c, http.StatusOK, public, "")
}
