package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwell-dev/inkwell/pkg/embed"
	"github.com/inkwell-dev/inkwell/pkg/ingest"
	"github.com/inkwell-dev/inkwell/pkg/search"
	"github.com/inkwell-dev/inkwell/pkg/storage/memory"
	"github.com/inkwell-dev/inkwell/pkg/transport"
)

const testDimension = 8

func newTestHandler(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	chunker, err := ingest.NewChunker(ingest.ChunkerConfig{MaxTokens: 64, OverlapTokens: 8})
	if err != nil {
		t.Skipf("skipping: token encoding unavailable: %v", err)
	}

	store := memory.New(testDimension)

	worker := embed.NewWorker(embed.NewHashingLoader(testDimension), embed.WorkerConfig{
		DefaultModelID: "hashing-test",
	})
	client := embed.NewClient(worker)
	t.Cleanup(client.Dispose)

	svc, err := ingest.NewService(ingest.Config{
		Store:     store,
		Client:    client,
		Chunker:   chunker,
		ModelID:   "hashing-test",
		Dimension: testDimension,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	server := NewServer(Services{
		Searcher: search.NewSearcher(store, testDimension),
		Embedder: search.NewQueryEmbedder(client),
		Ingest:   svc,
		Store:    store,
		Client:   client,
	})
	return server.Handler(), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateDocument(t *testing.T) {
	handler, store := newTestHandler(t)

	rec := doJSON(t, handler, "POST", "/v1/documents",
		`{"title": "Hello Gophers", "content": "Go makes concurrency pleasant."}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if resp.Slug != "hello-gophers" {
		t.Errorf("slug = %q, want hello-gophers", resp.Slug)
	}
	if resp.Chunks == 0 {
		t.Error("chunks = 0, want > 0")
	}
	if store.ChunkCount() != resp.Written {
		t.Errorf("stored chunks = %d, want %d", store.ChunkCount(), resp.Written)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"content": "body"}`},
		{"missing content", `{"title": "a title"}`},
		{"malformed json", `{"title": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, "POST", "/v1/documents", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var body transport.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == nil {
				t.Errorf("missing error envelope: %s", rec.Body.String())
			}
		})
	}
}

func TestCreateDocumentStreaming(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/v1/documents",
		strings.NewReader(`{"title": "Streamed", "content": "First paragraph.\n\nSecond paragraph."}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: progress") {
		t.Error("stream missing progress events")
	}
	if !strings.Contains(body, "event: completed") {
		t.Error("stream missing terminal completed event")
	}
	if !strings.Contains(body, "data: [DONE]") {
		t.Error("stream missing [DONE] marker")
	}
	// The terminal event comes after all progress events.
	if strings.LastIndex(body, "event: progress") > strings.Index(body, "event: completed") {
		t.Error("progress event after terminal event")
	}
}

func TestGetDocument(t *testing.T) {
	handler, _ := newTestHandler(t)

	doJSON(t, handler, "POST", "/v1/documents",
		`{"title": "Fetch Me", "content": "Some body."}`)

	rec := doJSON(t, handler, "GET", "/v1/documents/fetch-me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	json.Unmarshal(rec.Body.Bytes(), &doc)
	if doc.Title != "Fetch Me" {
		t.Errorf("title = %q", doc.Title)
	}

	if rec := doJSON(t, handler, "GET", "/v1/documents/no-such-slug", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown slug = %d, want 404", rec.Code)
	}
}

func TestListDocuments(t *testing.T) {
	handler, _ := newTestHandler(t)

	doJSON(t, handler, "POST", "/v1/documents", `{"title": "One", "content": "a"}`)
	doJSON(t, handler, "POST", "/v1/documents", `{"title": "Two", "content": "b"}`)

	rec := doJSON(t, handler, "GET", "/v1/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestSearchEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	doJSON(t, handler, "POST", "/v1/documents",
		`{"title": "Goroutines Explained", "content": "Goroutines are lightweight threads managed by the runtime."}`)

	rec := doJSON(t, handler, "POST", "/v1/search",
		`{"query": "goroutines lightweight threads"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("count = 0, want at least one result")
	}
	if resp.Results[0].Slug != "goroutines-explained" {
		t.Errorf("top result slug = %q", resp.Results[0].Slug)
	}
	if resp.Results[0].Excerpt == "" {
		t.Error("excerpt is empty")
	}
}

func TestSearchValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	if rec := doJSON(t, handler, "POST", "/v1/search", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status for missing query = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, handler, "POST", "/v1/search", `{"query": "x", "limit": 500}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status for oversized limit = %d, want 400", rec.Code)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, "POST", "/v1/search", `{"query": "anything"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SearchResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 0 || resp.Results == nil {
		t.Errorf("want empty result list, got %+v", resp)
	}
}

func TestDeleteDocument(t *testing.T) {
	handler, store := newTestHandler(t)

	rec := doJSON(t, handler, "POST", "/v1/documents",
		`{"title": "Doomed", "content": "Short lived."}`)
	var created IngestResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, handler, "DELETE", "/v1/documents/"+created.DocumentID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if store.ChunkCount() != 0 {
		t.Errorf("stored chunks = %d, want 0", store.ChunkCount())
	}

	if rec := doJSON(t, handler, "DELETE", "/v1/documents/"+created.DocumentID.String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, handler, "DELETE", "/v1/documents/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, "GET", "/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status StatusResponse
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Loaded {
		t.Error("model reported loaded before any call")
	}

	doJSON(t, handler, "POST", "/v1/documents", `{"title": "Warm Up", "content": "text"}`)

	rec = doJSON(t, handler, "GET", "/v1/status", "")
	json.Unmarshal(rec.Body.Bytes(), &status)
	if !status.Loaded {
		t.Error("model not reported loaded after ingestion")
	}
	if status.ModelID != "hashing-test" {
		t.Errorf("model_id = %q", status.ModelID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, "GET", "/healthz", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}
}
