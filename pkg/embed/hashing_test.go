package embed

import (
	"context"
	"testing"
)

func TestHashingPipelineDeterministic(t *testing.T) {
	loader := NewHashingLoader(64)
	pipeline, err := loader.Load(context.Background(), "hash", "cpu", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	a, _ := pipeline.Embed(context.Background(), "semantic search for blogs")
	b, _ := pipeline.Embed(context.Background(), "semantic search for blogs")

	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHashingPipelineSharedTokensScoreHigher(t *testing.T) {
	loader := NewHashingLoader(128)
	pipeline, _ := loader.Load(context.Background(), "hash", "cpu", nil)
	ctx := context.Background()

	query, _ := pipeline.Embed(ctx, "postgres vector search")
	related, _ := pipeline.Embed(ctx, "vector search with postgres indexes")
	unrelated, _ := pipeline.Embed(ctx, "banana bread recipe")

	simRelated := CosineSimilarity(Normalize(query), Normalize(related))
	simUnrelated := CosineSimilarity(Normalize(query), Normalize(unrelated))
	if simRelated <= simUnrelated {
		t.Errorf("related similarity %v should exceed unrelated %v", simRelated, simUnrelated)
	}
}

func TestHashingPipelineEmptyText(t *testing.T) {
	loader := NewHashingLoader(16)
	pipeline, _ := loader.Load(context.Background(), "hash", "cpu", nil)

	vec, err := pipeline.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 16 {
		t.Errorf("len = %d, want 16", len(vec))
	}
	if Norm(vec) != 0 {
		t.Errorf("tokenless text should produce a zero vector, norm = %v", Norm(vec))
	}
}
