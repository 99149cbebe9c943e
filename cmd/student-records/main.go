// main is the entry point of the student records service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured record store (sqlite, postgres, redis or memory)
//  4. Build the service and register all HTTP routes
//  5. Serve until an OS signal (Ctrl+C / kill) arrives
//  6. Gracefully shut down: finish in-flight requests, close the store, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-records --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-records
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aanand-mishra/student-records/internal/config"
	httpapi "github.com/aanand-mishra/student-records/internal/http"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/redis"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-records",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	// The context is cancelled on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("student-records stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// The rest of the code only knows about the storage.Storage interface;
	// the driver is picked by config.
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialise storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Service + Routes ───────────────────────────────────────────────
	var m *metrics.Metrics
	if !cfg.Metrics.Disabled {
		m = metrics.New()
	}

	svc := service.New(store, log)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      httpapi.NewRouter(svc, m, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Serve until the context is cancelled ───────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server encountered an error: %w", err)
		}
		return nil
	})

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		return sqlite.New(cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	case config.DriverRedis:
		return redis.New(ctx, cfg.RedisURL)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}
