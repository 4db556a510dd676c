package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/blog"
	"github.com/inkwell-dev/inkwell/pkg/embed"
	"github.com/inkwell-dev/inkwell/pkg/storage"
)

// documentNamespace seeds deterministic document IDs so re-ingesting a
// file with the same slug updates the existing document.
var documentNamespace = uuid.MustParse("9f2c1b5e-1a77-4f8e-b9d0-3c64a1e5c2aa")

// DocumentID derives the deterministic document ID for a slug.
func DocumentID(slug string) uuid.UUID {
	return uuid.NewSHA1(documentNamespace, []byte(slug))
}

// ProgressFunc receives ingestion progress: the phase ("embedding" or
// "storing"), and how many chunks out of total are done.
type ProgressFunc func(phase string, done, total int)

// Config holds the ingestion service dependencies and embedding
// parameters.
type Config struct {
	Store     storage.Store
	Client    *embed.Client
	Chunker   *Chunker
	ModelID   string
	Device    string
	Dimension int
	Pooling   string
	Logger    *slog.Logger
}

// Report summarizes one document ingestion.
type Report struct {
	DocumentID uuid.UUID
	Slug       string
	Chunks     int
	Written    int
	Duration   time.Duration
}

// Service chunks, embeds, and stores documents.
type Service struct {
	store     storage.Store
	client    *embed.Client
	chunker   *Chunker
	modelID   string
	device    string
	dimension int
	pooling   string
	logger    *slog.Logger
}

// NewService creates an ingestion service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ingest: store is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("ingest: embedding client is required")
	}
	if cfg.Chunker == nil {
		chunker, err := NewChunker(ChunkerConfig{})
		if err != nil {
			return nil, err
		}
		cfg.Chunker = chunker
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.Pooling == "" {
		cfg.Pooling = "mean"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		store:     cfg.Store,
		client:    cfg.Client,
		chunker:   cfg.Chunker,
		modelID:   cfg.ModelID,
		device:    cfg.Device,
		dimension: cfg.Dimension,
		pooling:   cfg.Pooling,
		logger:    cfg.Logger,
	}, nil
}

// IngestDocument saves the document, embeds its chunks, and upserts one
// row per chunk. Chunks from an earlier, longer version of the document
// are removed first so the stored set mirrors the current content.
func (s *Service) IngestDocument(ctx context.Context, doc *storage.Document, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	if progress == nil {
		progress = func(string, int, int) {}
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	texts := s.chunker.Chunk(doc.Content)
	if len(texts) == 0 {
		if err := s.store.DeleteChunks(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("clearing chunks: %w", err)
		}
		return &Report{DocumentID: doc.ID, Slug: doc.Slug, Duration: time.Since(start)}, nil
	}

	result, err := s.client.Embed(ctx, texts,
		embed.WithProgress(func(p api.ProgressPayload) {
			if p.Phase == api.PhaseRunning {
				progress("embedding", p.Index, p.Total)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(result.Embeddings), len(texts))
	}

	chunks := make([]storage.DocumentChunk, len(texts))
	for i, text := range texts {
		vec := result.Embeddings[i]
		if len(vec) != s.dimension {
			return nil, api.NewDimensionMismatchError(s.dimension, len(vec))
		}
		chunks[i] = storage.DocumentChunk{
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			ChunkText:   text,
			Embedding:   vec,
			ModelID:     s.modelID,
			Device:      s.device,
			Pooling:     s.pooling,
			Normalized:  true,
			ContentHash: hashContent(text),
		}
	}

	// Drop rows left over from a previous, longer version before the
	// upsert writes the current set.
	if err := s.store.DeleteChunks(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("clearing stale chunks: %w", err)
	}

	progress("storing", 0, len(chunks))
	written, err := s.store.UpsertChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("upserting chunks: %w", err)
	}
	progress("storing", written, len(chunks))

	report := &Report{
		DocumentID: doc.ID,
		Slug:       doc.Slug,
		Chunks:     len(chunks),
		Written:    written,
		Duration:   time.Since(start),
	}
	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"slug", doc.Slug,
		"chunks", report.Chunks,
		"duration_ms", report.Duration.Milliseconds())
	return report, nil
}

// IngestFile reads a markdown file and ingests it as a document. The
// title comes from the first heading (falling back to the file name)
// and the slug, derived from the title, determines the document ID, so
// repeated ingestion of the same file updates in place.
func (s *Service) IngestFile(ctx context.Context, path string, progress ProgressFunc) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	title := blog.Title(string(content))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	slug := blog.Slugify(title)
	if slug == "" {
		return nil, api.NewInvalidInputError("path", fmt.Sprintf("cannot derive a slug for %s", path))
	}

	doc := &storage.Document{
		ID:      DocumentID(slug),
		Title:   title,
		Slug:    slug,
		Content: string(content),
	}
	return s.IngestDocument(ctx, doc, progress)
}

// DeleteDocument removes a document and its chunks.
func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

// hashContent returns the hex SHA-256 of the chunk text, stored so
// unchanged chunks can be recognized across ingestions.
func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
