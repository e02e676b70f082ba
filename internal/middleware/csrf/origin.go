package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/technotes/internal/logging"
)

type Config struct {
	// CookieName is the credential cookie whose presence triggers the check.
	CookieName string
	// AllowedOrigins are scheme://host[:port] values, compared case-insensitively.
	AllowedOrigins []string
}

// OriginGuard rejects state-changing requests that carry the credential cookie
// from an origin outside the allowlist. Requests without an Origin or Referer
// header pass, since browsers always send one cross-site.
func OriginGuard(cfg Config) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			if _, err := req.Cookie(cfg.CookieName); err != nil {
				return next(c)
			}

			origin, ok := requestOrigin(req)
			if !ok {
				return next(c)
			}
			if _, ok := allowed[origin]; ok {
				return next(c)
			}
			if strings.EqualFold(origin, schemeOf(req)+"://"+req.Host) {
				return next(c)
			}

			logging.FromContext(req.Context()).Warn("origin_rejected", "status", 403, "origin", origin)
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
	}
}

func requestOrigin(r *http.Request) (string, bool) {
	raw := r.Header.Get("Origin")
	if raw == "" {
		raw = r.Header.Get("Referer")
	}
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "null", true
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
