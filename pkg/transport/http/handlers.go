// Package http provides the HTTP/SSE surface of the inkwell server:
// semantic search, document ingestion with optional progress streaming,
// document retrieval, and health/status endpoints.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/blog"
	"github.com/inkwell-dev/inkwell/pkg/embed"
	"github.com/inkwell-dev/inkwell/pkg/ingest"
	"github.com/inkwell-dev/inkwell/pkg/observability"
	"github.com/inkwell-dev/inkwell/pkg/search"
	"github.com/inkwell-dev/inkwell/pkg/storage"
	"github.com/inkwell-dev/inkwell/pkg/transport"
)

var validate = validator.New()

// Services bundles the application services the HTTP handlers expose.
type Services struct {
	Searcher *search.Searcher
	Embedder *search.QueryEmbedder
	Ingest   *ingest.Service
	Store    storage.Store
	Client   *embed.Client
}

type handlers struct {
	svc         Services
	maxBodySize int64
	logger      *slog.Logger
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// CreateDocumentRequest is the body of POST /v1/documents.
type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Slug    string `json:"slug"`
}

// IngestResponse reports the outcome of a document ingestion.
type IngestResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	Slug       string    `json:"slug"`
	Chunks     int       `json:"chunks"`
	Written    int       `json:"written"`
}

// StatusResponse reports the worker's model state.
type StatusResponse struct {
	Loaded  bool   `json:"loaded"`
	ModelID string `json:"model_id,omitempty"`
	Device  string `json:"device,omitempty"`
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		transport.WriteError(w, api.NewInvalidInputError("body", "invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			transport.WriteError(w, api.NewInvalidInputError(field,
				fmt.Sprintf("field %s failed validation (%s)", field, verrs[0].Tag())))
			return false
		}
		transport.WriteError(w, api.NewInvalidInputError("body", err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleSearch embeds the query and returns ranked documents.
func (h *handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	start := time.Now()
	vec, err := h.svc.Embedder.EmbedQuery(r.Context(), req.Query)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("error").Inc()
		transport.WriteError(w, err)
		return
	}

	results, err := h.svc.Searcher.Search(r.Context(), vec, req.Limit)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("error").Inc()
		transport.WriteError(w, err)
		return
	}

	observability.SearchesTotal.WithLabelValues("ok").Inc()
	observability.SearchDuration.Observe(time.Since(start).Seconds())

	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}

// handleCreateDocument ingests a document. With Accept: text/event-stream
// the response is an SSE stream of progress events ending in a terminal
// "completed" or "error" event; otherwise a single JSON report.
func (h *handlers) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = blog.Slugify(req.Title)
	}
	if slug == "" {
		transport.WriteError(w, api.NewInvalidInputError("slug", "cannot derive a slug from the title"))
		return
	}

	doc := &storage.Document{
		ID:      ingest.DocumentID(slug),
		Title:   req.Title,
		Slug:    slug,
		Content: req.Content,
	}

	if r.Header.Get("Accept") == "text/event-stream" {
		h.ingestStreaming(w, r, doc)
		return
	}

	report, err := h.svc.Ingest.IngestDocument(r.Context(), doc, nil)
	if err != nil {
		observability.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		transport.WriteError(w, err)
		return
	}
	observability.DocumentsIngestedTotal.WithLabelValues("ok").Inc()
	observability.ChunksWrittenTotal.Add(float64(report.Written))

	writeJSON(w, http.StatusCreated, IngestResponse{
		DocumentID: report.DocumentID,
		Slug:       report.Slug,
		Chunks:     report.Chunks,
		Written:    report.Written,
	})
}

// ingestStreaming runs the ingestion while emitting SSE progress events.
func (h *handlers) ingestStreaming(w http.ResponseWriter, r *http.Request, doc *storage.Document) {
	stream, err := newProgressStream(w)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	report, err := h.svc.Ingest.IngestDocument(r.Context(), doc, func(phase string, done, total int) {
		stream.progress(phase, done, total)
	})
	if err != nil {
		observability.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		stream.fail(err)
		return
	}
	observability.DocumentsIngestedTotal.WithLabelValues("ok").Inc()
	observability.ChunksWrittenTotal.Add(float64(report.Written))

	stream.complete(IngestResponse{
		DocumentID: report.DocumentID,
		Slug:       report.Slug,
		Chunks:     report.Chunks,
		Written:    report.Written,
	})
}

// handleGetDocument returns one document by slug.
func (h *handlers) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	doc, err := h.svc.Store.GetDocumentBySlug(r.Context(), slug)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleListDocuments returns all documents, newest first.
func (h *handlers) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Store.ListDocuments(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*storage.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

// handleDeleteDocument removes a document and its chunks.
func (h *handlers) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		transport.WriteError(w, api.NewInvalidInputError("id", "not a valid document ID"))
		return
	}

	if err := h.svc.Ingest.DeleteDocument(r.Context(), id); err != nil {
		transport.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStatus reports the embedding worker's model state.
func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Client.Status(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Loaded:  result.Loaded,
		ModelID: result.ModelID,
		Device:  result.Device,
	})
}

// handleHealth verifies the store connection.
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
