package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/unrolled/secure"
	"gorm.io/gorm"

	"github.com/Skotchmaster/technotes/internal/db"
	jwthelp "github.com/Skotchmaster/technotes/internal/jwt"
	authmw "github.com/Skotchmaster/technotes/internal/middleware/auth"
	"github.com/Skotchmaster/technotes/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/technotes/internal/middleware/logging"
	"github.com/Skotchmaster/technotes/internal/transport"
)

const msgTooManyLogins = "Too many login attempts from this IP, please try again after a 60 second pause"

type Options struct {
	AllowedOrigins []string
	LoginRateLimit int
	Production     bool
}

type Deps struct {
	AuthHandler  *AuthHTTP
	NotesHandler *NotesHTTP
	UsersHandler *UsersHTTP
	Bearer       *authmw.BearerAuth
	DB           *gorm.DB
}

// New builds the echo instance with the global middleware chain and all
// routes registered.
func New(base *slog.Logger, opts Options, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	})

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(base))
	e.Use(echo.WrapMiddleware(sec.Handler))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))

	Register(e, opts, d)
	return e
}

func Register(e *echo.Echo, opts Options, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", readiness(d.DB))

	// Logout stays outside the origin guard so it always clears the cookie.
	originGuard := csrf.OriginGuard(csrf.Config{
		CookieName:     jwthelp.RefreshCookieName,
		AllowedOrigins: opts.AllowedOrigins,
	})
	auth := e.Group("/auth")
	auth.POST("", d.AuthHandler.Login, originGuard, loginLimiter(opts.LoginRateLimit))
	auth.GET("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	// The guard is attached per route; Group.Use would also wrap the
	// group's not-found fallbacks and turn unknown paths into 401s.
	private := d.Bearer.RequireAuth

	e.GET("/notes", d.NotesHandler.List, private)
	e.GET("/notes/search", d.NotesHandler.Search, private)
	e.POST("/notes", d.NotesHandler.Create, private)
	e.PATCH("/notes", d.NotesHandler.Update, private)
	e.DELETE("/notes", d.NotesHandler.Delete, private)

	e.GET("/users", d.UsersHandler.List, private)
	e.POST("/users", d.UsersHandler.Create, private)
	e.PATCH("/users", d.UsersHandler.Update, private)
	e.DELETE("/users", d.UsersHandler.Delete, private)
}

// loginLimiter allows limit login attempts per client IP per minute.
func loginLimiter(limit int) echo.MiddlewareFunc {
	if limit < 1 {
		limit = 5
	}
	return echo.WrapMiddleware(httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(transport.MessageResponse{Message: msgTooManyLogins})
		}),
	))
}

func readiness(gdb *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if gdb == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, gdb); err != nil {
			return c.JSON(http.StatusServiceUnavailable, transport.MessageResponse{Message: "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	}
}
