// Package config provides unified configuration for the inkwell server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (INKWELL_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the inkwell server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Storage       StorageConfig       `yaml:"storage"`
	Ingest        IngestConfig        `yaml:"ingest"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// EmbeddingConfig holds embedding backend and worker settings.
type EmbeddingConfig struct {
	Backend     string        `yaml:"backend"`      // "ollama" or "hashing", default: "ollama"
	ModelID     string        `yaml:"model_id"`     // default: "all-minilm"
	Device      string        `yaml:"device"`       // default: "cpu"
	Dimension   int           `yaml:"dimension"`    // default: 384
	BaseURL     string        `yaml:"base_url"`     // Ollama endpoint, default: http://localhost:11434
	CallTimeout time.Duration `yaml:"call_timeout"` // per-call deadline, default: 60s
}

// StorageConfig holds vector store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// IngestConfig holds chunking and watch-mode settings.
type IngestConfig struct {
	MaxTokens     int           `yaml:"max_tokens"`     // per-chunk token budget, default: 256
	OverlapTokens int           `yaml:"overlap_tokens"` // default: 32
	ContentDir    string        `yaml:"content_dir"`    // directory watched for markdown, optional
	Debounce      time.Duration `yaml:"debounce"`       // watch-mode debounce, default: 2s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Backend:     "ollama",
			ModelID:     "all-minilm",
			Device:      "cpu",
			Dimension:   384,
			BaseURL:     "http://localhost:11434",
			CallTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Ingest: IngestConfig{
			MaxTokens:     256,
			OverlapTokens: 32,
			Debounce:      2 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
