package search

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/embed"
)

func newTestEmbedder(t *testing.T, dimension int) *QueryEmbedder {
	t.Helper()

	worker := embed.NewWorker(embed.NewHashingLoader(dimension), embed.WorkerConfig{
		DefaultModelID: "hashing-test",
	})
	client := embed.NewClient(worker)
	t.Cleanup(client.Dispose)

	return NewQueryEmbedder(client)
}

func TestEmbedQuery(t *testing.T) {
	embedder := newTestEmbedder(t, 8)

	vec, err := embedder.EmbedQuery(context.Background(), "semantic search")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 8 {
		t.Errorf("len(vec) = %d, want 8", len(vec))
	}

	// Same query, same vector.
	again, err := embedder.EmbedQuery(context.Background(), "semantic search")
	if err != nil {
		t.Fatalf("second EmbedQuery: %v", err)
	}
	for i := range vec {
		if vec[i] != again[i] {
			t.Fatalf("vector not deterministic at index %d", i)
		}
	}
}

func TestEmbedQueryRejectsBlank(t *testing.T) {
	embedder := newTestEmbedder(t, 8)

	for _, query := range []string{"", "   ", "\n\t"} {
		_, err := embedder.EmbedQuery(context.Background(), query)
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.Name != api.ErrorInvalidInput {
			t.Errorf("EmbedQuery(%q) err = %v, want invalid_input", query, err)
		}
	}
}
