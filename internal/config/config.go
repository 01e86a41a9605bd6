package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	StorageLocal = "local"
	StorageMinio = "minio"
)

// Model names used when DESCRIBE_MODEL / TAG_MODEL are unset.
var defaultModels = map[string]struct{ describe, tag string }{
	ProviderOllama: {describe: "llava", tag: "llama3"},
	ProviderGemini: {describe: "gemini-1.5-flash", tag: "gemini-1.5-flash"},
}

type Config struct {
	// Server
	ServerPort int    `envconfig:"SERVER_PORT" default:"5000"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Metadata backend (the web app's file API)
	MetadataURL     string        `envconfig:"METADATA_URL" default:"http://next-app:3000"`
	MetadataTimeout time.Duration `envconfig:"METADATA_TIMEOUT" default:"30s"`

	// Worker
	EnableWorker    bool          `envconfig:"ENABLE_WORKER" default:"true"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"20s"`
	MaxFileBytes    int64         `envconfig:"MAX_FILE_BYTES" default:"52428800"` // 50MB
	MaxContentChars int           `envconfig:"MAX_CONTENT_CHARS" default:"8000"`

	// Inference
	InferenceProvider string        `envconfig:"INFERENCE_PROVIDER" default:"ollama"`
	OllamaURL         string        `envconfig:"OLLAMA_URL" default:"http://ollama:11434"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	DescribeModel     string        `envconfig:"DESCRIBE_MODEL"` // per-provider default
	TagModel          string        `envconfig:"TAG_MODEL"`      // per-provider default
	InferenceTimeout  time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"5m"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	StorageRoot    string `envconfig:"STORAGE_ROOT" default:"/srv/tusd-data/data"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"minio:9000"`
	MinioAccessKey string `envconfig:"MINIO_ROOT_USER"`
	MinioSecretKey string `envconfig:"MINIO_ROOT_PASSWORD"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"uploads"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Failure journal
	EnableJournal bool   `envconfig:"ENABLE_JOURNAL" default:"false"`
	DBHost        string `envconfig:"DB_HOST" default:"postgres"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"autotag"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"autotag"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Events, disabled when empty
	NSQDHost string `envconfig:"NSQD_HOST"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	cfg.InferenceProvider = strings.ToLower(strings.TrimSpace(cfg.InferenceProvider))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.applyModelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyModelDefaults() {
	models, ok := defaultModels[c.InferenceProvider]
	if !ok {
		return
	}
	if c.DescribeModel == "" {
		c.DescribeModel = models.describe
	}
	if c.TagModel == "" {
		c.TagModel = models.tag
	}
}

func (c *Config) Validate() error {
	if c.MetadataURL == "" {
		return fmt.Errorf("%w: METADATA_URL", ErrMissingRequired)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: POLL_INTERVAL must be positive", ErrInvalid)
	}
	if c.DescribeModel == "" {
		return fmt.Errorf("%w: DESCRIBE_MODEL", ErrMissingRequired)
	}
	if c.TagModel == "" {
		return fmt.Errorf("%w: TAG_MODEL", ErrMissingRequired)
	}

	switch c.InferenceProvider {
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("%w: OLLAMA_URL", ErrMissingRequired)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: unknown INFERENCE_PROVIDER %q", ErrInvalid, c.InferenceProvider)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.StorageRoot == "" {
			return fmt.Errorf("%w: STORAGE_ROOT", ErrMissingRequired)
		}
	case StorageMinio:
		if c.MinioEndpoint == "" {
			return fmt.Errorf("%w: MINIO_ENDPOINT", ErrMissingRequired)
		}
		if c.MinioBucket == "" {
			return fmt.Errorf("%w: MINIO_BUCKET", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q", ErrInvalid, c.StorageBackend)
	}

	if c.EnableJournal {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DSN builds the lib/pq connection string for the failure journal.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}
