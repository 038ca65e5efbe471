package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ratings/internal/adapters/http/api"
	"github.com/okian/ratings/internal/adapters/http/swagger"
	"github.com/okian/ratings/internal/adapters/repository"
	service "github.com/okian/ratings/internal/app"
	"github.com/okian/ratings/internal/config"
	"github.com/okian/ratings/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "ratings:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get().Named("main")

	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDedupeTTL(cfg.DedupeTTL),
		service.WithShardCount(cfg.ShardCount),
		service.WithGlickoConfig(cfg.Glicko.Config),
		service.WithTeamMode(cfg.TeamMode()),
		service.WithGrayDeviation(cfg.Glicko.GrayDeviation),
		service.WithDecayPeriod(cfg.Glicko.DecayPeriod),
		service.WithEloConfig(cfg.Elo),
	}
	if cfg.DatabaseURL != "" {
		db, err := repository.OpenPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		log.Info(ctx, "using postgres store")
		opts = append(opts, service.WithStore(db))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newHandler mounts the rating API and the docs on one router. The API
// installs the router middleware, so it is registered before any other route.
func newHandler(svc *service.Service) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, svc).Register(r)
	swagger.Register(r)
	return r
}
