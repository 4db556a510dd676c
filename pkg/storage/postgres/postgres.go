// Package postgres provides the pgvector-backed implementation of
// storage.Store. It uses pgx/v5 for connection pooling and the pgvector
// extension for cosine nearest-neighbor queries over chunk embeddings.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/inkwell-dev/inkwell/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, dimension: cfg.Dimension}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveDocument inserts or updates a document keyed by ID. A slug taken
// by a different document surfaces as ErrConflict.
func (s *Store) SaveDocument(ctx context.Context, doc *storage.Document) error {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, title, slug, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title      = EXCLUDED.title,
			slug       = EXCLUDED.slug,
			content    = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.Title, doc.Slug, doc.Content, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return wrapStoreError("inserting document", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*storage.Document, error) {
	return s.getDocument(ctx, "id = $1", id)
}

// GetDocumentBySlug retrieves a document by slug.
func (s *Store) GetDocumentBySlug(ctx context.Context, slug string) (*storage.Document, error) {
	return s.getDocument(ctx, "slug = $1", slug)
}

func (s *Store) getDocument(ctx context.Context, where string, arg any) (*storage.Document, error) {
	var doc storage.Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, slug, content, created_at, updated_at
		FROM documents
		WHERE `+where,
		arg,
	).Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreError("querying document", err)
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]*storage.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, slug, content, created_at, updated_at
		FROM documents
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, wrapStoreError("listing documents", err)
	}
	defer rows.Close()

	var docs []*storage.Document
	for rows.Next() {
		var doc storage.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, wrapStoreError("scanning document", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document; its chunks go with it via the
// ON DELETE CASCADE constraint.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return wrapStoreError("deleting document", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertChunks writes all chunk embeddings, overwriting text, metadata,
// hash, and vector when the (document_id, chunk_index, model_id, device)
// key already exists. Returns the number of items written.
func (s *Store) UpsertChunks(ctx context.Context, chunks []storage.DocumentChunk) (int, error) {
	written := 0
	for _, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return written, fmt.Errorf("chunk %d of document %s: embedding length %d, store dimension %d",
				c.ChunkIndex, c.DocumentID, len(c.Embedding), s.dimension)
		}

		_, err := s.pool.Exec(ctx, `
			INSERT INTO document_chunks
				(document_id, chunk_index, model_id, device, chunk_text,
				 embedding, pooling, normalized, content_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (document_id, chunk_index, model_id, device) DO UPDATE SET
				chunk_text   = EXCLUDED.chunk_text,
				embedding    = EXCLUDED.embedding,
				pooling      = EXCLUDED.pooling,
				normalized   = EXCLUDED.normalized,
				content_hash = EXCLUDED.content_hash
		`, c.DocumentID, c.ChunkIndex, c.ModelID, c.Device, c.ChunkText,
			pgvector.NewVector(c.Embedding), c.Pooling, c.Normalized, c.ContentHash)

		if err != nil {
			return written, wrapStoreError("upserting chunk", err)
		}
		written++
	}
	return written, nil
}

// DeleteChunks removes all chunks of a document.
func (s *Store) DeleteChunks(ctx context.Context, documentID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM document_chunks WHERE document_id = $1", documentID)
	if err != nil {
		return wrapStoreError("deleting chunks", err)
	}
	return nil
}

// SearchChunks returns the limit nearest chunks under cosine distance,
// joined with their owning documents, ordered by ascending distance.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, limit int) ([]storage.ChunkMatch, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("query embedding length %d, store dimension %d", len(embedding), s.dimension)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.title, d.slug, d.content, d.created_at,
		       c.chunk_index, c.chunk_text,
		       c.embedding <=> $1 AS distance
		FROM document_chunks c
		JOIN documents d ON c.document_id = d.id
		ORDER BY c.embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, wrapStoreError("searching chunks", err)
	}
	defer rows.Close()

	var matches []storage.ChunkMatch
	for rows.Next() {
		var m storage.ChunkMatch
		if err := rows.Scan(&m.DocumentID, &m.Title, &m.Slug, &m.Content, &m.CreatedAt,
			&m.ChunkIndex, &m.ChunkText, &m.Distance); err != nil {
			return nil, wrapStoreError("scanning chunk match", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// wrapStoreError converts pg errors into *storage.StoreError, keeping
// the structured fields Postgres provides.
func wrapStoreError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, &storage.StoreError{
			Code:       pgErr.Code,
			Message:    pgErr.Message,
			Detail:     pgErr.Detail,
			Constraint: pgErr.ConstraintName,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation checks for a PostgreSQL unique violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
