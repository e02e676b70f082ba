package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/technotes/internal/tokens"
)

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	svc := tokens.NewService([]byte("access"), []byte("refresh"))
	good, err := svc.IssueAccessToken("alice", []string{"Manager"})
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("alice")
	require.NoError(t, err)

	mw := NewBearerAuth(svc)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing", header: "", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + good.Token, code: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", code: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh.Token, code: http.StatusForbidden},
		{name: "garbage", header: "Bearer x.y.z", code: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			called := false
			err := mw.RequireAuth(func(echo.Context) error {
				called = true
				return nil
			})(c)

			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.code, he.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireAuth_SetsIdentity(t *testing.T) {
	t.Parallel()

	svc := tokens.NewService([]byte("access"), []byte("refresh"))
	good, err := svc.IssueAccessToken("alice", []string{"Employee", "Manager"})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+good.Token)
	c := e.NewContext(req, httptest.NewRecorder())

	var username string
	var roles []string
	err = NewBearerAuth(svc).RequireAuth(func(c echo.Context) error {
		username = Username(c)
		roles = Roles(c)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, []string{"Employee", "Manager"}, roles)
}
