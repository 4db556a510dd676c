package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/embed"
)

// QueryEmbedder turns a search query string into an embedding vector by
// delegating to the embedding worker client.
type QueryEmbedder struct {
	client *embed.Client
}

// NewQueryEmbedder wraps an embedding client for query use.
func NewQueryEmbedder(client *embed.Client) *QueryEmbedder {
	return &QueryEmbedder{client: client}
}

// EmbedQuery embeds a single query string. Blank queries are rejected
// without reaching the worker.
func (q *QueryEmbedder) EmbedQuery(ctx context.Context, query string, opts ...embed.CallOption) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, api.NewInvalidInputError("query", "query must not be empty")
	}

	result, err := q.client.Embed(ctx, []string{query}, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(result.Embeddings) != 1 {
		return nil, fmt.Errorf("embedding query: expected 1 vector, got %d", len(result.Embeddings))
	}
	return result.Embeddings[0], nil
}
