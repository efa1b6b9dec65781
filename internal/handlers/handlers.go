package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/services"
)

// Handler serves the JSON API.
type Handler struct {
	accounts  *services.AccountService
	goals     *services.GoalService
	pairing   *services.PairingService
	companion *services.Companion
	tokens    TokenIssuer
}

// TokenIssuer signs the bearer token handed out at login.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// New builds the API handler. companion may be nil, in which case the chat
// route is not registered.
func New(accounts *services.AccountService, goalSvc *services.GoalService, pairing *services.PairingService, companion *services.Companion, tokens TokenIssuer) *Handler {
	return &Handler{
		accounts:  accounts,
		goals:     goalSvc,
		pairing:   pairing,
		companion: companion,
		tokens:    tokens,
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func respond(c echo.Context, status int, payload any, message string) error {
	return c.JSON(status, models.Response{Payload: payload, Message: message})
}

// bind decodes the request body; a malformed body is a validation failure.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return models.NewValidationError("body", "invalid request body")
	}
	return nil
}

// fail maps an error kind onto a status code. Unexpected failures are
// logged once here.
func fail(c echo.Context, err error) error {
	status, kind := classify(err)
	resp := models.ErrorResponse{Error: err.Error(), Kind: kind}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request().Method, c.Path(), err)
		if kind == "internal" {
			resp.Error = "internal error"
		}
	}
	return c.JSON(status, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrDataSource):
		return http.StatusServiceUnavailable, "data_source"
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
