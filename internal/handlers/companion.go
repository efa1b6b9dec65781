package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/auth"
	"github.com/beefriend/beefriend-api/internal/models"
)

func (h *Handler) Chat(c echo.Context) error {
	var in models.ChatInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	ctx := c.Request().Context()
	user, err := h.accounts.Get(ctx, auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}

	reply, err := h.companion.Reply(ctx, user, in.Message)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, models.ChatReply{Reply: reply}, "")
}
