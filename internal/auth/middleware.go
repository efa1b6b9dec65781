package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/models"
)

const userIDKey = "userID"

// Middleware rejects requests without a valid bearer token and stores the
// token subject on the echo context.
func Middleware(tokens *Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return unauthorized(c)
			}

			userID, err := tokens.Parse(tokenString)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user of the request, or "".
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
}
