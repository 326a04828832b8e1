package mockbank

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userContextKey = "mockbank.user"

// AuthMiddleware resolves the Bearer token to a user and stores it in the
// request context. Requests to skipPaths pass through unauthenticated.
func AuthMiddleware(store *Store, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip[c.Request().URL.Path] {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return authError(c, "missing authorization header")
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				return authError(c, "invalid authorization header format, expected 'Bearer <token>'")
			}

			user, err := store.Authenticate(strings.TrimPrefix(authHeader, prefix))
			if err != nil {
				return authError(c, err.Error())
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func authError(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "authentication_error",
			"message": message,
		},
	})
}

func currentUser(c echo.Context) User {
	u, _ := c.Get(userContextKey).(User)
	return u
}
