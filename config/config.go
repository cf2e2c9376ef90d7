// Package config provides process configuration for FileSeekr.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
)

// ErrInvalidConfig is the root of every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete process configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Indexing   IndexingConfig   `koanf:"indexing"`
	Search     SearchConfig     `koanf:"search"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds index storage settings.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EmbeddingsConfig selects and tunes the text embedding provider.
type EmbeddingsConfig struct {
	Provider          string        `koanf:"provider"`
	Host              string        `koanf:"host"`
	Model             string        `koanf:"model"`
	Token             string        `koanf:"token"`
	Dimension         int           `koanf:"dimension"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxAttempts       int           `koanf:"max_attempts"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	CacheDir          string        `koanf:"cache_dir"`
}

// IndexingConfig tunes the scanner and pipeline.
type IndexingConfig struct {
	Workers          int           `koanf:"workers"`
	JobTimeout       time.Duration `koanf:"job_timeout"`
	ScanInterval     time.Duration `koanf:"scan_interval"`
	Watch            *bool         `koanf:"watch"`
	Debounce         time.Duration `koanf:"debounce"`
	MaxDocumentBytes int64         `koanf:"max_document_bytes"`
	MaxFileBytes     int64         `koanf:"max_file_bytes"`
	OCRLanguage      string        `koanf:"ocr_language"`
}

// WatchEnabled reports whether live filesystem watching is on. Default true.
func (c IndexingConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// SearchConfig tunes query handling.
type SearchConfig struct {
	MaxHits int `koanf:"max_hits"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ConfigDir returns the directory holding the config file and default index.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "fileseekr"), nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	// Storage defaults
	if cfg.Storage.Path == "" && !cfg.Storage.InMemory {
		if dir, err := ConfigDir(); err == nil {
			cfg.Storage.Path = filepath.Join(dir, "index")
		}
	}

	// Embedding defaults mirror ai.DefaultConfig
	def := ai.DefaultConfig()
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = def.Provider
	}
	if cfg.Embeddings.Host == "" {
		cfg.Embeddings.Host = def.EmbeddingHost
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = def.EmbeddingModel
	}
	if cfg.Embeddings.Token == "" {
		cfg.Embeddings.Token = def.Token
	}
	if cfg.Embeddings.Dimension == 0 {
		cfg.Embeddings.Dimension = def.Dimension
	}
	if cfg.Embeddings.MaxAttempts == 0 {
		cfg.Embeddings.MaxAttempts = def.MaxAttempts
	}
	if cfg.Embeddings.RetryDelay == 0 {
		cfg.Embeddings.RetryDelay = def.RetryDelay
	}

	// Indexing defaults
	if cfg.Indexing.JobTimeout == 0 {
		cfg.Indexing.JobTimeout = 60 * time.Second
	}
	if cfg.Indexing.ScanInterval == 0 {
		cfg.Indexing.ScanInterval = 15 * time.Minute
	}
	if cfg.Indexing.Debounce == 0 {
		cfg.Indexing.Debounce = 2 * time.Second
	}
	if cfg.Indexing.MaxDocumentBytes == 0 {
		cfg.Indexing.MaxDocumentBytes = 1 << 20
	}
	if cfg.Indexing.MaxFileBytes == 0 {
		cfg.Indexing.MaxFileBytes = 512 << 20
	}
	if cfg.Indexing.OCRLanguage == "" {
		cfg.Indexing.OCRLanguage = "eng"
	}

	// Search defaults
	if cfg.Search.MaxHits == 0 {
		cfg.Search.MaxHits = 10
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout cannot be negative"))
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required unless storage.in_memory is set"))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("embeddings: %w", err))
	}
	if c.Indexing.Workers < 0 {
		errs = append(errs, fmt.Errorf("indexing.workers cannot be negative"))
	}
	if c.Indexing.JobTimeout <= 0 {
		errs = append(errs, fmt.Errorf("indexing.job_timeout must be positive"))
	}
	if c.Indexing.ScanInterval < 0 {
		errs = append(errs, fmt.Errorf("indexing.scan_interval cannot be negative"))
	}
	if c.Indexing.MaxDocumentBytes <= 0 || c.Indexing.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("indexing size limits must be positive"))
	}
	if c.Search.MaxHits < 1 {
		errs = append(errs, fmt.Errorf("search.max_hits must be at least 1"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// AIConfig converts the embeddings section for the ai package.
func (c *Config) AIConfig() *ai.Config {
	e := c.Embeddings
	return ai.NewConfig(
		ai.WithProvider(e.Provider),
		ai.WithEmbeddingHost(e.Host),
		ai.WithEmbeddingModel(e.Model),
		ai.WithToken(e.Token),
		ai.WithDimension(e.Dimension),
		ai.WithRateLimit(e.RequestsPerSecond),
		ai.WithRetryPolicy(e.MaxAttempts, e.RetryDelay),
		ai.WithCacheDir(e.CacheDir),
	)
}
