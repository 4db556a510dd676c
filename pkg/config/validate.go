package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// embedding.backend must be a known value.
	switch c.Embedding.Backend {
	case "ollama", "hashing":
		// valid
	default:
		errs = append(errs, fmt.Errorf("embedding.backend must be \"ollama\" or \"hashing\", got %q", c.Embedding.Backend))
	}

	if c.Embedding.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be > 0, got %d", c.Embedding.Dimension))
	}
	if c.Embedding.Backend == "ollama" && c.Embedding.BaseURL == "" {
		errs = append(errs, fmt.Errorf("embedding.base_url is required when embedding.backend is \"ollama\""))
	}
	if c.Embedding.ModelID == "" {
		errs = append(errs, fmt.Errorf("embedding.model_id is required"))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	if c.Ingest.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("ingest.max_tokens must be > 0, got %d", c.Ingest.MaxTokens))
	}
	if c.Ingest.OverlapTokens < 0 || c.Ingest.OverlapTokens >= c.Ingest.MaxTokens {
		errs = append(errs, fmt.Errorf("ingest.overlap_tokens must be in [0, max_tokens), got %d", c.Ingest.OverlapTokens))
	}

	return errors.Join(errs...)
}
