package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
)

const identityKey = "identity"

type AuthMiddleware struct {
	tokens *auth.TokenIssuer
}

func NewAuthMiddleware(tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		ident, err := m.tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		c.Set(identityKey, ident)
		return next(c)
	}
}

// RequireRole narrows RequireAuth to one participant role.
func (m *AuthMiddleware) RequireRole(role model.ParticipantRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok || ident.Role != role {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		})
	}
}

func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	ident, ok := c.Get(identityKey).(auth.Identity)
	return ident, ok
}
