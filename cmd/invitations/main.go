// Command invitations serves the game invitations API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-invitations-backend/docs"
	"github.com/tbourn/go-invitations-backend/internal/auth"
	"github.com/tbourn/go-invitations-backend/internal/config"
	httpapi "github.com/tbourn/go-invitations-backend/internal/http"
	"github.com/tbourn/go-invitations-backend/internal/http/handlers"
	"github.com/tbourn/go-invitations-backend/internal/notify"
	"github.com/tbourn/go-invitations-backend/internal/observability"
	"github.com/tbourn/go-invitations-backend/internal/repo"
	"github.com/tbourn/go-invitations-backend/internal/services"
	"github.com/tbourn/go-invitations-backend/internal/sysutil"
	"github.com/tbourn/go-invitations-backend/internal/tasks"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; the real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.ServiceID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("invitations: exited with error")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(version, "dev")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel: shutdown failed")
		}
	}()

	stores, err := openBackends(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn().Err(err).Msg("store: close failed")
		}
	}()

	runner := tasks.NewRunner(cfg.Tasks.Workers, cfg.Tasks.Timeout)
	// Runs before the stores close: in-flight notifications and expiry
	// refreshes still need them.
	defer runner.Close()

	svc := services.NewInvitationService(
		repo.NewInvitationStore(stores.invitations, cfg.Invitations.TTL),
		blockChecker(stores),
		dispatcher(cfg),
		runner,
		cfg.ServiceID,
		cfg.Invitations.BanDuration,
	)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = ver
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Invitations: svc,
		Gate:        auth.NewGate(repo.NewAuthDB(stores.auth), cfg.APISecret),
		About:       handlers.NewAbout(cfg.ServiceID, ver, "Game invitations service"),
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("prefix", cfg.APIBasePath).
			Str("store", cfg.Store.Backend).
			Str("version", ver).
			Msg("invitations: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("invitations: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// blockChecker returns nil when no usermeta store is configured, which
// disables the block check.
func blockChecker(b *backends) services.BlockChecker {
	if b.usermeta == nil {
		return nil
	}
	return repo.NewUserMetaBlocks(b.usermeta)
}

// dispatcher posts to the notifications service, or drops notifications when
// none is configured.
func dispatcher(cfg config.Config) services.Dispatcher {
	if cfg.Notifications.URL == "" {
		log.Warn().Msg("notify: NOTIFICATIONS_URL not set, notifications are dropped")
		return notify.Noop{}
	}
	return notify.NewHTTPDispatcher(cfg.Notifications.URL, cfg.APISecret, cfg.Notifications.Timeout, nil)
}
