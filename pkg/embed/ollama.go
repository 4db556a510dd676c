package embed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkwell-dev/inkwell/pkg/debug"
)

// OllamaConfig holds settings for the Ollama embedding backend.
type OllamaConfig struct {
	// BaseURL of the Ollama server (default http://localhost:11434).
	BaseURL string
	// Dimension is the deployment's fixed embedding dimension; vectors
	// of any other length are rejected downstream.
	Dimension int
	// Timeout for individual HTTP requests (default 120s; model pulls
	// stream and are bounded per-chunk, not per-request).
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (c *OllamaConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
}

// OllamaBackend loads models and computes embeddings through an Ollama
// server. Model loading uses the streaming pull API, whose per-layer
// completed/total counters feed the caller's progress function; Ollama
// caches pulled models itself, so repeated loads of a present model
// transfer no layer data.
type OllamaBackend struct {
	baseURL   string
	dimension int
	client    *http.Client
}

// Compile-time check.
var _ Loader = (*OllamaBackend)(nil)

// NewOllamaBackend creates an Ollama-backed Loader.
func NewOllamaBackend(cfg OllamaConfig) *OllamaBackend {
	cfg.defaults()
	return &OllamaBackend{
		baseURL:   cfg.BaseURL,
		dimension: cfg.Dimension,
		client:    cfg.HTTPClient,
	}
}

// pullEvent is one NDJSON line of the streaming pull response.
type pullEvent struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Load pulls the model and returns a pipeline bound to it. The device
// parameter is recorded by the worker only; Ollama decides placement
// on its own.
func (b *OllamaBackend) Load(ctx context.Context, modelID, device string, progress ProgressFunc) (Pipeline, error) {
	body, err := json.Marshal(map[string]any{"model": modelID, "stream": true})
	if err != nil {
		return nil, fmt.Errorf("marshaling pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pulling model %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pulling model %s: status %d: %s", modelID, resp.StatusCode, data)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev pullEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			// Unparseable lines carry no progress; keep streaming.
			continue
		}
		if ev.Error != "" {
			return nil, fmt.Errorf("pulling model %s: %s", modelID, ev.Error)
		}
		debug.Trace("embed", "pull event",
			"model", modelID, "status", ev.Status, "completed", ev.Completed, "total", ev.Total)
		if ev.Digest != "" && progress != nil {
			progress(ev.Digest, ev.Completed, ev.Total)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pull stream: %w", err)
	}

	return &ollamaPipeline{backend: b, modelID: modelID}, nil
}

// ollamaPipeline computes embeddings via /api/embed for one model.
type ollamaPipeline struct {
	backend *OllamaBackend
	modelID string
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (p *ollamaPipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.modelID, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.backend.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.backend.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request: status %d: %s", resp.StatusCode, data)
	}

	var decoded ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("embed request: %s", decoded.Error)
	}
	if len(decoded.Embeddings) == 0 || len(decoded.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embed request: empty embedding for model %s", p.modelID)
	}

	vec := make([]float32, len(decoded.Embeddings[0]))
	for i, v := range decoded.Embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (p *ollamaPipeline) Dimension() int {
	return p.backend.dimension
}
