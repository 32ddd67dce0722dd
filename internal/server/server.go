// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/database"
	"codeberg.org/treenza/storefront/internal/handlers"
	"codeberg.org/treenza/storefront/internal/i18n"
	"codeberg.org/treenza/storefront/internal/middleware"
	"codeberg.org/treenza/storefront/internal/ratelimit"
	"codeberg.org/treenza/storefront/internal/repository"
	"codeberg.org/treenza/storefront/internal/services/auth"
	"codeberg.org/treenza/storefront/internal/services/email"
	"codeberg.org/treenza/storefront/internal/services/media"
	"codeberg.org/treenza/storefront/internal/services/token"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB       handlers.Pinger
	Auth     *auth.Service
	Verifier middleware.TokenVerifier
	Media    *media.Service          // nil disables the video endpoints
	Limiter  echomw.RateLimiterStore // nil disables OTP rate limiting
}

// Run wires the services from cfg and serves until ctx is canceled or a
// termination signal arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	setupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	if cfg.Auth.OTPTTL != config.DefaultOTPTTL {
		slog.Warn("otp_ttl_overridden", "otp_ttl", cfg.Auth.OTPTTL, "default", config.DefaultOTPTTL)
	}

	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	mailer, err := email.NewService(&cfg.SMTP, cfg.Auth.OTPTTL)
	if err != nil {
		return fmt.Errorf("failed to configure mail: %w", err)
	}

	signer := token.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	deps := Deps{
		DB:       repo,
		Auth:     auth.NewService(repo, signer, mailer, cfg),
		Verifier: signer,
	}

	if cfg.Storage.Enabled() {
		objects, storeErr := media.NewS3Store(ctx, &cfg.Storage)
		if storeErr != nil {
			return fmt.Errorf("failed to configure object storage: %w", storeErr)
		}
		deps.Media = media.NewService(repo, objects)
	} else {
		slog.Info("object storage not configured, video endpoints disabled")
	}

	if cfg.Auth.OTPRateLimit > 0 {
		store, closeStore, limitErr := ratelimit.NewStore(cfg.Redis.URL, cfg.Auth.OTPRateLimit)
		if limitErr != nil {
			return fmt.Errorf("failed to configure rate limiting: %w", limitErr)
		}
		defer func() {
			if closeErr := closeStore(); closeErr != nil {
				slog.Error("failed to close rate limit store", "error", closeErr)
			}
		}()
		deps.Limiter = store
	}

	return startWithGracefulShutdown(ctx, New(cfg, deps), cfg)
}

// New builds the Echo instance with middleware and routes.
func New(cfg *config.Config, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, deps)

	return e
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
