package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/tokens"
)

const (
	ContextUsername = "username"
	ContextRoles    = "roles"
)

type AccessVerifier interface {
	VerifyAccessToken(raw string) (*tokens.AccessClaims, error)
}

type BearerAuth struct {
	Tokens AccessVerifier
}

func NewBearerAuth(v AccessVerifier) *BearerAuth {
	return &BearerAuth{Tokens: v}
}

// RequireAuth admits requests carrying a valid access token in the
// Authorization header. A missing or non-Bearer header is 401, a token that
// fails verification is 403.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			l.Warn("auth_rejected", "status", 401, "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}

		claims, err := m.Tokens.VerifyAccessToken(raw)
		if err != nil {
			l.Warn("auth_rejected", "status", 403, "reason", "invalid access token", "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}

		c.Set(ContextUsername, claims.UserInfo.Username)
		c.Set(ContextRoles, claims.UserInfo.Roles)
		return next(c)
	}
}

// Username returns the authenticated username set by RequireAuth.
func Username(c echo.Context) string {
	s, _ := c.Get(ContextUsername).(string)
	return s
}

func Roles(c echo.Context) []string {
	r, _ := c.Get(ContextRoles).([]string)
	return r
}
