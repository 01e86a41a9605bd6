package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"autotag/features/diskusage"
	"autotag/features/job"
	"autotag/internal/config"
	"autotag/internal/middleware"
	"autotag/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Handler http.Handler
	// Worker is nil when ENABLE_WORKER is off.
	Worker *worker.Worker

	port int
}

func New(cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*App, error) {
	if deps.Stater == nil {
		return nil, errors.New("app: disk usage stater is required")
	}

	// Feature: Job (failure journal)
	var jobRepo job.Repository
	var jobService *job.Service
	if deps.DB != nil {
		jobRepo = job.NewPostgresRepo(deps.DB)
		jobService = job.NewService(jobRepo, logger)
	}
	jobHandler := job.NewHandler(jobService)

	// Feature: Disk usage
	diskHandler := diskusage.NewHandler(deps.Stater, cfg.StorageRoot)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /disk-usage", middleware.CorrelationID(enableCORS(diskHandler.DiskUsage)))
	mux.Handle("GET /remaining-storage", middleware.CorrelationID(enableCORS(diskHandler.RemainingStorage)))

	mux.Handle("GET /jobs/failed", middleware.CorrelationID(enableCORS(jobHandler.List)))
	mux.Handle("DELETE /jobs/failed/{hash}", middleware.CorrelationID(enableCORS(jobHandler.Dismiss)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	a := &App{Handler: mux, port: cfg.ServerPort}

	// Worker
	if cfg.EnableWorker {
		if deps.Metadata == nil || deps.Store == nil || deps.Inference == nil {
			return nil, errors.New("app: worker needs metadata, store and inference dependencies")
		}

		var journal worker.Journal
		if jobRepo != nil {
			journal = jobRepo
		}
		var publisher worker.EventPublisher
		if deps.NSQProducer != nil {
			publisher = deps.NSQProducer
		}

		a.Worker = worker.New(worker.Config{
			Interval:        cfg.PollInterval,
			DescribeModel:   cfg.DescribeModel,
			TagModel:        cfg.TagModel,
			MaxContentChars: cfg.MaxContentChars,
		}, deps.Metadata, deps.Store, deps.Inference, journal, publisher)
	}

	return a, nil
}

// Run serves HTTP and, when enabled, runs the tagging worker until ctx is
// cancelled. The server is shut down gracefully before Run returns.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", a.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
			return err
		}
		return nil
	})

	if a.Worker != nil {
		g.Go(func() error {
			if err := a.Worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
