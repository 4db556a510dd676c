package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/pkg/api"
)

// stubPipeline returns canned vectors keyed by text.
type stubPipeline struct {
	dim     int
	vectors map[string][]float32
	err     error
}

func (p *stubPipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, p.dim), nil
}

func (p *stubPipeline) Dimension() int { return p.dim }

// stubLoader counts loads and can script download progress.
type stubLoader struct {
	pipeline Pipeline
	err      error
	loads    int
	script   func(progress ProgressFunc)
}

func (l *stubLoader) Load(ctx context.Context, modelID, device string, progress ProgressFunc) (Pipeline, error) {
	l.loads++
	if l.script != nil {
		l.script(progress)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.pipeline, nil
}

// startWorker wires a worker to a cancellable context and returns its
// channels.
func startWorker(t *testing.T, loader Loader) (chan<- *api.WorkerRequest, <-chan api.WorkerMessage) {
	t.Helper()
	w := NewWorker(loader, WorkerConfig{DefaultModelID: "test-model"})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	w.Start(ctx)
	return w.Requests(), w.Messages()
}

// collectCall sends a request and gathers all progress until the
// terminal response arrives.
func collectCall(t *testing.T, in chan<- *api.WorkerRequest, out <-chan api.WorkerMessage, req *api.WorkerRequest) (*api.WorkerResponse, []api.ProgressPayload) {
	t.Helper()
	in <- req

	var progress []api.ProgressPayload
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-out:
			switch m := msg.(type) {
			case *api.WorkerProgress:
				if m.RequestID == req.RequestID {
					progress = append(progress, m.Payload)
				}
			case *api.WorkerResponse:
				if m.RequestID == req.RequestID {
					return m, progress
				}
			}
		case <-deadline:
			t.Fatal("no terminal response within 5s")
		}
	}
}

func TestWorkerEmbedOrderAndProgress(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{
		dim: 2,
		vectors: map[string][]float32{
			"hola":  {1, 0},
			"mundo": {0, 1},
		},
	}}
	in, out := startWorker(t, loader)

	resp, progress := collectCall(t, in, out, &api.WorkerRequest{
		Type:      api.RequestEmbed,
		RequestID: api.NewRequestID(),
		Payload:   &api.RequestPayload{Texts: []string{"hola", "mundo"}},
	})

	if !resp.OK {
		t.Fatalf("embed failed: %v", resp.Error)
	}
	got := resp.Result.Embeddings
	if len(got) != 2 {
		t.Fatalf("len(embeddings) = %d, want 2", len(got))
	}
	if got[0][0] != 1 || got[0][1] != 0 || got[1][0] != 0 || got[1][1] != 1 {
		t.Errorf("embeddings = %v, want [[1 0] [0 1]]", got)
	}
	if resp.Result.ModelID != "test-model" || resp.Result.Device != "cpu" {
		t.Errorf("active config = (%s, %s), want (test-model, cpu)", resp.Result.ModelID, resp.Result.Device)
	}

	var running []api.ProgressPayload
	for _, p := range progress {
		if p.Phase == api.PhaseRunning {
			running = append(running, p)
		}
	}
	if len(running) != 2 {
		t.Fatalf("running progress events = %d, want 2", len(running))
	}
	if *running[0].Percent != 50 || running[0].Index != 1 || running[0].Total != 2 {
		t.Errorf("first progress = %+v, want 50%% (1/2)", running[0])
	}
	if *running[1].Percent != 100 || running[1].Index != 2 || running[1].Total != 2 {
		t.Errorf("second progress = %+v, want 100%% (2/2)", running[1])
	}
}

func TestWorkerEmbedNormalizes(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{
		dim:     2,
		vectors: map[string][]float32{"text": {3, 4}},
	}}
	in, out := startWorker(t, loader)

	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type:      api.RequestEmbed,
		RequestID: api.NewRequestID(),
		Payload:   &api.RequestPayload{Texts: []string{"text"}},
	})

	if !resp.OK {
		t.Fatalf("embed failed: %v", resp.Error)
	}
	vec := resp.Result.Embeddings[0]
	if n := Norm(vec); n < 0.999999 || n > 1.000001 {
		t.Errorf("norm = %v, want ~1", n)
	}
}

func TestWorkerInitIsIdempotent(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{dim: 2}}
	in, out := startWorker(t, loader)

	first, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
	})
	if !first.OK || !first.Result.Loaded {
		t.Fatalf("first init failed: %+v", first)
	}

	second, progress := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
	})
	if !second.OK {
		t.Fatalf("second init failed: %v", second.Error)
	}

	if loader.loads != 1 {
		t.Errorf("loader invoked %d times, want 1 (cache hit)", loader.loads)
	}
	if len(progress) != 0 {
		t.Errorf("cache hit should emit no loading progress, got %d events", len(progress))
	}
}

func TestWorkerInitSupersedesConfiguration(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{dim: 2}}
	in, out := startWorker(t, loader)

	collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
		Payload: &api.RequestPayload{ModelID: "model-a"},
	})
	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
		Payload: &api.RequestPayload{ModelID: "model-b"},
	})

	if loader.loads != 2 {
		t.Errorf("loader invoked %d times, want 2", loader.loads)
	}
	if resp.Result.ModelID != "model-b" {
		t.Errorf("active model = %s, want model-b", resp.Result.ModelID)
	}
}

func TestWorkerLoadingProgress(t *testing.T) {
	loader := &stubLoader{
		pipeline: &stubPipeline{dim: 2},
		script: func(progress ProgressFunc) {
			progress("layer-1", 100, 400)
			progress("layer-2", 100, 400)
			progress("layer-1", 400, 400)
			progress("layer-2", 400, 400)
		},
	}
	in, out := startWorker(t, loader)

	resp, progress := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
	})
	if !resp.OK {
		t.Fatalf("init failed: %v", resp.Error)
	}

	if len(progress) != 5 {
		t.Fatalf("progress events = %d, want 4 updates + completion", len(progress))
	}
	for _, p := range progress {
		if p.Phase != api.PhaseLoading {
			t.Errorf("phase = %s, want loading", p.Phase)
		}
	}
	if *progress[0].Percent != 25 {
		t.Errorf("first percent = %v, want 25", *progress[0].Percent)
	}
	// Fully transferred but not yet declared complete: capped at 99.
	if *progress[3].Percent != 99 {
		t.Errorf("pre-completion percent = %v, want 99", *progress[3].Percent)
	}
	if *progress[4].Percent != 100 {
		t.Errorf("completion percent = %v, want 100", *progress[4].Percent)
	}
}

func TestWorkerLoadFailure(t *testing.T) {
	loader := &stubLoader{err: errors.New("registry unreachable")}
	in, out := startWorker(t, loader)

	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestInit, RequestID: api.NewRequestID(),
	})

	if resp.OK {
		t.Fatal("init should fail when the loader fails")
	}
	if resp.Error.Name != api.ErrorModelLoadFailure {
		t.Errorf("error name = %s, want %s", resp.Error.Name, api.ErrorModelLoadFailure)
	}

	// A failed load leaves no model behind.
	status, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestStatus, RequestID: api.NewRequestID(),
	})
	if status.Result.Loaded {
		t.Error("worker should report unloaded after a failed load")
	}
}

func TestWorkerClearCache(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{dim: 2}}
	in, out := startWorker(t, loader)

	collectCall(t, in, out, &api.WorkerRequest{Type: api.RequestInit, RequestID: api.NewRequestID()})

	resp, _ := collectCall(t, in, out, &api.WorkerRequest{Type: api.RequestClearCache, RequestID: api.NewRequestID()})
	if !resp.OK || resp.Result.Loaded {
		t.Fatalf("clearCache should succeed and report unloaded: %+v", resp)
	}

	// The next init loads again.
	collectCall(t, in, out, &api.WorkerRequest{Type: api.RequestInit, RequestID: api.NewRequestID()})
	if loader.loads != 2 {
		t.Errorf("loader invoked %d times after clearCache, want 2", loader.loads)
	}
}

func TestWorkerUnknownType(t *testing.T) {
	in, out := startWorker(t, &stubLoader{pipeline: &stubPipeline{dim: 2}})

	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: "shutdown", RequestID: api.NewRequestID(),
	})

	if resp.OK {
		t.Fatal("unknown type should be rejected")
	}
	if resp.Error.Name != api.ErrorUnknownMessageType {
		t.Errorf("error name = %s, want %s", resp.Error.Name, api.ErrorUnknownMessageType)
	}
}

func TestWorkerEmptyTextsRejected(t *testing.T) {
	loader := &stubLoader{pipeline: &stubPipeline{dim: 2}}
	in, out := startWorker(t, loader)

	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestEmbed, RequestID: api.NewRequestID(),
		Payload: &api.RequestPayload{Texts: nil},
	})

	if resp.OK {
		t.Fatal("empty texts should be rejected")
	}
	if resp.Error.Name != api.ErrorInvalidInput {
		t.Errorf("error name = %s, want %s", resp.Error.Name, api.ErrorInvalidInput)
	}
	if loader.loads != 0 {
		t.Error("no partial work should happen for invalid input")
	}
}

func TestWorkerDropsShapelessMessages(t *testing.T) {
	in, out := startWorker(t, &stubLoader{pipeline: &stubPipeline{dim: 2}})

	// No request ID: nothing to correlate a response with.
	in <- &api.WorkerRequest{Type: api.RequestStatus}

	// The worker is still serving afterwards.
	resp, _ := collectCall(t, in, out, &api.WorkerRequest{
		Type: api.RequestStatus, RequestID: api.NewRequestID(),
	})
	if !resp.OK {
		t.Fatalf("status after dropped message failed: %v", resp.Error)
	}
}
