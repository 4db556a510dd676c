package postgres

import "time"

// Config holds PostgreSQL connection settings.
type Config struct {
	// DSN is the connection string (required).
	DSN string

	// Dimension is the deployment's fixed embedding dimension. It must
	// match the vector column width created by the migrations.
	Dimension int

	// MaxConns / MinConns bound the connection pool.
	MaxConns int32
	MinConns int32

	// MaxConnLifetime recycles connections older than this.
	MaxConnLifetime time.Duration

	// MigrateOnStart applies pending schema migrations during New.
	MigrateOnStart bool
}

// defaults fills in zero-valued fields.
func (c *Config) defaults() {
	if c.Dimension == 0 {
		c.Dimension = 384
	}
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
}
