package embed

import "context"

// Pipeline converts text into fixed-length embedding vectors. A pipeline
// is produced by a Loader for one (modelID, device) configuration and is
// dropped wholesale when the worker switches configurations.
type Pipeline interface {
	// Embed computes the embedding vector for a single text, pooled and
	// ready for normalization.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of vectors this pipeline produces.
	Dimension() int
}

// ProgressFunc receives byte-level download progress for a single named
// model asset while a load is in flight. Total is zero when the asset's
// content length is unknown.
//
// The function is scoped to one Load call; no global interception state
// is involved or left behind.
type ProgressFunc func(file string, loaded, total int64)

// Loader constructs a Pipeline for a model configuration, reporting
// download progress through the supplied callback. Implementations may
// fetch model data over the network and should make repeated loads of
// the same configuration cheap.
type Loader interface {
	Load(ctx context.Context, modelID, device string, progress ProgressFunc) (Pipeline, error)
}
