package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/storage"
)

// DefaultLimit is the number of results returned when the caller does
// not specify one.
const DefaultLimit = 10

// Result is one ranked document. A query yields at most one Result per
// document, carrying its highest-similarity chunk.
type Result struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    string    `json:"excerpt"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// Searcher ranks documents against query embeddings using a chunk store.
type Searcher struct {
	store     storage.ChunkStore
	dimension int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) { s.logger = logger }
}

// NewSearcher creates a Searcher over the given store. The dimension is
// the fixed embedding width of the deployment; query vectors of any
// other length are rejected.
func NewSearcher(store storage.ChunkStore, dimension int, opts ...Option) *Searcher {
	s := &Searcher{
		store:     store,
		dimension: dimension,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to limit documents ranked by descending similarity
// to the query embedding. A limit <= 0 selects DefaultLimit. The query
// vector's length must equal the configured dimension; mismatches fail
// before any store access.
func (s *Searcher) Search(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	if len(embedding) != s.dimension {
		return nil, api.NewDimensionMismatchError(s.dimension, len(embedding))
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	matches, err := s.store.SearchChunks(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunk store: %w", err)
	}

	results := aggregate(matches)
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("semantic search completed",
		"chunks", len(matches),
		"documents", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

// aggregate collapses per-chunk matches to one result per document,
// keeping the highest-similarity chunk, and sorts by descending
// similarity. The sort is stable so equal scores keep store order.
func aggregate(matches []storage.ChunkMatch) []Result {
	best := make(map[uuid.UUID]int)
	results := make([]Result, 0, len(matches))

	for _, m := range matches {
		similarity := 1 - m.Distance
		if idx, ok := best[m.DocumentID]; ok {
			if similarity > results[idx].Similarity {
				results[idx].Similarity = similarity
			}
			continue
		}
		best[m.DocumentID] = len(results)
		results = append(results, Result{
			DocumentID: m.DocumentID,
			Title:      m.Title,
			Slug:       m.Slug,
			Excerpt:    Excerpt(m.Content, DefaultExcerptLength),
			Similarity: similarity,
			CreatedAt:  m.CreatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}
