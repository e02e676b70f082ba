package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/technotes/internal/config"
	"github.com/Skotchmaster/technotes/internal/db"
	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/httpserver"
	"github.com/Skotchmaster/technotes/internal/logging"
	authmw "github.com/Skotchmaster/technotes/internal/middleware/auth"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/revocation"
	"github.com/Skotchmaster/technotes/internal/search"
	"github.com/Skotchmaster/technotes/internal/service"
	"github.com/Skotchmaster/technotes/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store := repo.New(gdb)
	tokenSvc := tokens.NewService(cfg.AccessSecret(), cfg.RefreshSecret())

	var publisher events.Publisher = events.Noop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
		logger.Info("kafka events enabled", "brokers", cfg.KafkaBrokers)
	}

	authSvc := &service.AuthService{Users: store, Tokens: tokenSvc, Events: publisher}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := revocation.NewClient(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, refresh revocation disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			authSvc.Revoker = &revocation.RedisStore{Client: client}
			defer client.Close()
		}
	}

	notesSvc := &service.NotesService{Notes: store, Users: store, Events: publisher}
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("elasticsearch unavailable, using database search", "error", err)
		} else {
			notesSvc.Index = search.NewNoteIndex(es)
		}
	}

	usersSvc := &service.UsersService{Users: store, Notes: store, Events: publisher, BcryptCost: cfg.BcryptCost}

	e := httpserver.New(logger, httpserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Production:     cfg.IsProduction(),
	}, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: authSvc},
		NotesHandler: &httpserver.NotesHTTP{Svc: notesSvc},
		UsersHandler: &httpserver.UsersHTTP{Svc: usersSvc},
		Bearer:       authmw.NewBearerAuth(tokenSvc),
		DB:           gdb,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("server stopped")
}
