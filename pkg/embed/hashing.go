package embed

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashingLoader provides a dependency-free embedding backend for
// development and tests. Each token maps to a deterministic
// pseudo-random vector via feature hashing; token vectors are mean
// pooled into the text embedding. The result is no substitute for a
// trained model but is stable, fast, and dimensionally correct, so
// similar texts (sharing tokens) score as similar.
type HashingLoader struct {
	dimension int
}

// Compile-time check.
var _ Loader = (*HashingLoader)(nil)

// NewHashingLoader creates a loader producing vectors of the given
// dimension.
func NewHashingLoader(dimension int) *HashingLoader {
	return &HashingLoader{dimension: dimension}
}

// Load is instantaneous: there is nothing to download, so no loading
// progress is reported.
func (l *HashingLoader) Load(ctx context.Context, modelID, device string, progress ProgressFunc) (Pipeline, error) {
	return &hashingPipeline{dimension: l.dimension}, nil
}

type hashingPipeline struct {
	dimension int
}

func (p *hashingPipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return make([]float32, p.dimension), nil
	}

	vectors := make([][]float32, len(tokens))
	for i, token := range tokens {
		vectors[i] = tokenVector(token, p.dimension)
	}
	return MeanPool(vectors), nil
}

func (p *hashingPipeline) Dimension() int {
	return p.dimension
}

// tokenVector fills a vector with deterministic values in [-1, 1)
// derived from the token's FNV-1a hash via an xorshift generator.
func tokenVector(token string, dimension int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(token))
	state := h.Sum64()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}

	vec := make([]float32, dimension)
	for i := range vec {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(int64(state%2000)-1000) / 1000
	}
	return vec
}
