package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is a blog post: raw markdown content plus presentation
// metadata.
type Document struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentChunk is one embedded span of a document. The tuple
// (DocumentID, ChunkIndex, ModelID, Device) uniquely identifies a chunk;
// re-ingesting the same tuple overwrites text, embedding, and metadata.
type DocumentChunk struct {
	DocumentID  uuid.UUID
	ChunkIndex  int
	ChunkText   string
	Embedding   []float32
	ModelID     string
	Device      string
	Pooling     string
	Normalized  bool
	ContentHash string
}

// ChunkMatch is one row of a nearest-neighbor query: the chunk joined
// with its owning document, plus the cosine distance to the query
// vector.
type ChunkMatch struct {
	DocumentID uuid.UUID
	Title      string
	Slug       string
	Content    string
	CreatedAt  time.Time
	ChunkIndex int
	ChunkText  string
	Distance   float64
}

// DocumentStore persists blog documents.
type DocumentStore interface {
	// SaveDocument inserts or updates a document. Inserting a second
	// document with an existing slug returns ErrConflict.
	SaveDocument(ctx context.Context, doc *Document) error

	// GetDocument retrieves a document by ID. Returns ErrNotFound if absent.
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)

	// GetDocumentBySlug retrieves a document by slug. Returns ErrNotFound
	// if absent.
	GetDocumentBySlug(ctx context.Context, slug string) (*Document, error)

	// ListDocuments returns all documents ordered by creation time,
	// newest first.
	ListDocuments(ctx context.Context) ([]*Document, error)

	// DeleteDocument removes a document and all of its chunks. Returns
	// ErrNotFound if absent.
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// ChunkStore persists chunk embeddings and answers nearest-neighbor
// queries over them.
type ChunkStore interface {
	// UpsertChunks writes all items, overwriting on key conflict, and
	// returns the number written.
	UpsertChunks(ctx context.Context, chunks []DocumentChunk) (int, error)

	// DeleteChunks removes every chunk of the given document.
	DeleteChunks(ctx context.Context, documentID uuid.UUID) error

	// SearchChunks returns the limit chunks nearest to the query vector
	// under cosine distance, joined with their owning documents and
	// ordered by ascending distance.
	SearchChunks(ctx context.Context, embedding []float32, limit int) ([]ChunkMatch, error)
}

// Store is the full persistence surface of the service.
type Store interface {
	DocumentStore
	ChunkStore

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
