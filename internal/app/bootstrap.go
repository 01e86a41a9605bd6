package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"autotag/features/diskusage"
	"autotag/internal/adapter/gemini"
	"autotag/internal/adapter/metadata"
	"autotag/internal/adapter/ollama"
	"autotag/internal/config"
	"autotag/internal/storage"
	"autotag/internal/worker"
)

// Dependencies are the external connections the app runs on. DB and
// NSQProducer are nil when the journal or events are disabled.
type Dependencies struct {
	DB          *sql.DB
	NSQProducer *nsq.Producer
	Store       storage.Store
	Inference   worker.Inference
	Metadata    worker.MetadataBackend
	Stater      diskusage.Stater

	closers []func() error
}

// Close releases every connection Bootstrap opened.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type ModelProvisioner interface {
	EnsureModel(ctx context.Context, model string) error
}

type BucketChecker interface {
	EnsureBucket(ctx context.Context) error
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{
		Metadata: metadata.NewClient(cfg.MetadataURL, cfg.MetadataTimeout),
		Stater:   diskusage.NewStatfsStater(),
	}
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// Failure journal
	if cfg.EnableJournal {
		db, err := openJournal(ctx, cfg, retryDelay)
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.closers = append(deps.closers, db.Close)
	}

	fail := func(err error) (*Dependencies, error) {
		_ = deps.Close()
		return nil, err
	}

	// Content store
	switch cfg.StorageBackend {
	case config.StorageMinio:
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, cfg.MaxFileBytes)
		if err != nil {
			return fail(err)
		}
		if err := EnsureBucketWithRetry(ctx, store, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
			return fail(fmt.Errorf("minio bucket error: %w", err))
		}
		deps.Store = store
	default:
		deps.Store = storage.NewLocalStore(cfg.StorageRoot, cfg.MaxFileBytes)
	}

	// Inference
	switch cfg.InferenceProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return fail(fmt.Errorf("gemini client error: %w", err))
		}
		deps.closers = append(deps.closers, client.Close)
		deps.Inference = client
	default:
		client, err := ollama.NewClient(cfg.OllamaURL, cfg.InferenceTimeout)
		if err != nil {
			return fail(err)
		}
		deps.Inference = client
	}

	models := []string{cfg.DescribeModel, cfg.TagModel}
	if err := EnsureModelsWithRetry(ctx, deps.Inference, models, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return fail(fmt.Errorf("model provisioning error: %w", err))
	}

	// NSQ Producer
	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			return fail(fmt.Errorf("nsq producer error: %w", err))
		}
		producer.SetLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn), nsq.LogLevelWarning)
		if err := producer.Ping(); err != nil {
			// Events are best effort; the producer reconnects on publish.
			slog.WarnContext(ctx, "nsqd not reachable yet", "host", cfg.NSQDHost, "error", err)
		}
		deps.NSQProducer = producer
		deps.closers = append(deps.closers, func() error {
			producer.Stop()
			return nil
		})
	}

	return deps, nil
}

func openJournal(ctx context.Context, cfg *config.Config, retryDelay time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Retry loop
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			break
		}
		slog.WarnContext(ctx, "failed to ping db, retrying...", "attempt", i+1)
		if !sleep(ctx, retryDelay) {
			break
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.InfoContext(ctx, "migrations applied successfully")

	return db, nil
}

// EnsureModelsWithRetry provisions every distinct model, retrying each up to attempts times.
func EnsureModelsWithRetry(ctx context.Context, p ModelProvisioner, models []string, attempts int, delay time.Duration) error {
	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if seen[model] {
			continue
		}
		seen[model] = true
		err := withRetry(ctx, attempts, delay, func() error {
			return p.EnsureModel(ctx, model)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", model, err)
		}
	}
	return nil
}

// EnsureBucketWithRetry delegates the bucket check to a helper with retry logic.
func EnsureBucketWithRetry(ctx context.Context, b BucketChecker, attempts int, delay time.Duration) error {
	return withRetry(ctx, attempts, delay, func() error {
		return b.EnsureBucket(ctx)
	})
}

func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			slog.WarnContext(ctx, "bootstrap step failed, retrying...", "attempt", i+1, "error", err)
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
		}
	}
	return err
}

// sleep waits for d or until ctx is done, reporting whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
