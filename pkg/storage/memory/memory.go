// Package memory provides a map-backed storage.Store for development
// and tests. Nearest-neighbor queries compute exact cosine distances
// over all stored chunks.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/pkg/embed"
	"github.com/inkwell-dev/inkwell/pkg/storage"
)

type chunkKey struct {
	documentID uuid.UUID
	chunkIndex int
	modelID    string
	device     string
}

// Store is an in-memory storage.Store.
type Store struct {
	mu        sync.RWMutex
	dimension int
	documents map[uuid.UUID]*storage.Document
	bySlug    map[string]uuid.UUID
	chunks    map[chunkKey]storage.DocumentChunk
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store for vectors of the given
// dimension.
func New(dimension int) *Store {
	return &Store{
		dimension: dimension,
		documents: make(map[uuid.UUID]*storage.Document),
		bySlug:    make(map[string]uuid.UUID),
		chunks:    make(map[chunkKey]storage.DocumentChunk),
	}
}

// SaveDocument inserts or updates a document keyed by ID.
func (s *Store) SaveDocument(ctx context.Context, doc *storage.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.bySlug[doc.Slug]; ok && owner != doc.ID {
		return storage.ErrConflict
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if existing, ok := s.documents[doc.ID]; ok && existing.Slug != doc.Slug {
		delete(s.bySlug, existing.Slug)
	}

	copied := *doc
	s.documents[doc.ID] = &copied
	s.bySlug[doc.Slug] = doc.ID
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// GetDocumentBySlug retrieves a document by slug.
func (s *Store) GetDocumentBySlug(ctx context.Context, slug string) (*storage.Document, error) {
	s.mu.RLock()
	id, ok := s.bySlug[slug]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.GetDocument(ctx, id)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*storage.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		copied := *doc
		docs = append(docs, &copied)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document and all of its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.bySlug, doc.Slug)
	for key := range s.chunks {
		if key.documentID == id {
			delete(s.chunks, key)
		}
	}
	return nil
}

// UpsertChunks writes all items, overwriting on key conflict.
func (s *Store) UpsertChunks(ctx context.Context, chunks []storage.DocumentChunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		key := chunkKey{c.DocumentID, c.ChunkIndex, c.ModelID, c.Device}
		s.chunks[key] = c
	}
	return len(chunks), nil
}

// DeleteChunks removes all chunks of a document.
func (s *Store) DeleteChunks(ctx context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.chunks {
		if key.documentID == documentID {
			delete(s.chunks, key)
		}
	}
	return nil
}

// SearchChunks scans every stored chunk, computes exact cosine
// distances, and returns the limit nearest joined with their documents.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, limit int) ([]storage.ChunkMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []storage.ChunkMatch
	for key, chunk := range s.chunks {
		doc, ok := s.documents[key.documentID]
		if !ok {
			continue
		}
		matches = append(matches, storage.ChunkMatch{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Slug:       doc.Slug,
			Content:    doc.Content,
			CreatedAt:  doc.CreatedAt,
			ChunkIndex: chunk.ChunkIndex,
			ChunkText:  chunk.ChunkText,
			Distance:   embed.CosineDistance(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ChunkCount reports the number of stored chunks (test helper).
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
