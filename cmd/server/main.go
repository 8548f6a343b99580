package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dsbaciga/captains-log/internal/config"
	"github.com/dsbaciga/captains-log/internal/db"
	"github.com/dsbaciga/captains-log/internal/events"
	"github.com/dsbaciga/captains-log/internal/httpserver"
	"github.com/dsbaciga/captains-log/internal/logging"
	"github.com/dsbaciga/captains-log/internal/middleware"
	"github.com/dsbaciga/captains-log/internal/repo"
	"github.com/dsbaciga/captains-log/internal/service"
	"github.com/dsbaciga/captains-log/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.AccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	codec := tokens.NewCodec(
		tokens.Config{Secret: cfg.AccessSecret, Lifetime: cfg.AccessTTL},
		tokens.Config{Secret: cfg.RefreshSecret, Lifetime: cfg.RefreshTTL},
	)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic)
	defer producer.Close()

	svc := &service.AuthService{
		Repo:     &repo.GormRepo{DB: database},
		Codec:    codec,
		Producer: producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:        svc,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Auth: middleware.NewRequireAuth(codec),
	})

	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
