// Package embed implements the embedding worker and its RPC client.
//
// The worker runs in its own goroutine and owns a single mutable model
// configuration. All communication happens over two channels carrying
// api.WorkerRequest and api.WorkerMessage values; there is no shared
// memory between the worker and its callers. The Client correlates
// concurrent logical calls over those channels by request ID, delivers
// per-call progress, and enforces per-call timeouts.
//
// Model loading and inference are abstracted behind the Loader and
// Pipeline interfaces. Two backends ship with the package: an Ollama
// HTTP backend for real deployments and a deterministic feature-hashing
// backend for development and tests.
package embed
