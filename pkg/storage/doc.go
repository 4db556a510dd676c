// Package storage defines the document and chunk persistence interfaces
// consumed by search and ingestion, together with the shared types and
// error values. The postgres subpackage provides the production
// implementation backed by pgvector; the memory subpackage provides a
// map-backed implementation for development and tests.
package storage
