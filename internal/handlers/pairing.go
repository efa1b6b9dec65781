package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/auth"
)

// FindPartners lists users sharing a goal with the caller. Repeated goal
// query parameters override the caller's stored goals.
func (h *Handler) FindPartners(c echo.Context) error {
	matches, err := h.pairing.FindPartners(c.Request().Context(), auth.UserID(c), c.QueryParams()["goal"])
	if err != nil {
		return fail(c, err)
	}

	if len(matches) == 0 {
		return respond(c, http.StatusOK, matches, "No matching users found")
	}
	return respond(c, http.StatusOK, matches, "Matching users found")
}
