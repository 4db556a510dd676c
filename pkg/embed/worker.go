package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/observability"
)

// WorkerConfig holds the worker's defaults and channel sizing.
type WorkerConfig struct {
	// DefaultModelID and DefaultDevice are used when a request payload
	// omits them.
	DefaultModelID string
	DefaultDevice  string
	// QueueSize is the inbox/outbox buffer size (default 16).
	QueueSize int
	Logger    *slog.Logger
}

func (c *WorkerConfig) defaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	if c.DefaultDevice == "" {
		c.DefaultDevice = "cpu"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Worker owns one loaded model configuration and processes requests
// one at a time from its inbox. All model state is confined to the loop
// goroutine; callers interact exclusively through the two channels.
type Worker struct {
	loader Loader
	cfg    WorkerConfig
	inbox  chan *api.WorkerRequest
	out    chan api.WorkerMessage
	logger *slog.Logger

	// Loaded model state. Touched only by the loop goroutine.
	modelID  string
	device   string
	pipeline Pipeline
}

// NewWorker creates a worker backed by the given loader. Start must be
// called before sending requests.
func NewWorker(loader Loader, cfg WorkerConfig) *Worker {
	cfg.defaults()
	return &Worker{
		loader: loader,
		cfg:    cfg,
		inbox:  make(chan *api.WorkerRequest, cfg.QueueSize),
		out:    make(chan api.WorkerMessage, cfg.QueueSize),
		logger: cfg.Logger,
	}
}

// Requests returns the channel requests are sent on.
func (w *Worker) Requests() chan<- *api.WorkerRequest { return w.inbox }

// Messages returns the channel responses and progress arrive on. It is
// closed when the worker stops.
func (w *Worker) Messages() <-chan api.WorkerMessage { return w.out }

// Start launches the worker loop. The worker stops and closes its
// message channel when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.out)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.inbox:
			if !ok {
				return
			}
			w.handle(ctx, req)
		}
	}
}

// handle dispatches one request. Each handler body runs to completion
// before the next request is picked up, so model state needs no locking.
func (w *Worker) handle(ctx context.Context, req *api.WorkerRequest) {
	// Messages without the expected shape are dropped, not answered:
	// there is no request ID to correlate a response with.
	if req == nil || req.RequestID == "" {
		w.logger.Debug("dropping malformed worker message")
		return
	}

	if err := api.ValidateRequest(req); err != nil {
		w.send(ctx, api.NewErrorResponse(req.RequestID, err))
		return
	}

	switch req.Type {
	case api.RequestStatus:
		w.handleStatus(ctx, req)
	case api.RequestClearCache:
		w.handleClearCache(ctx, req)
	case api.RequestInit:
		w.handleInit(ctx, req)
	case api.RequestEmbed:
		w.handleEmbed(ctx, req)
	}
}

// handleStatus reports whether a model is loaded and which configuration
// is active. No side effects.
func (w *Worker) handleStatus(ctx context.Context, req *api.WorkerRequest) {
	w.send(ctx, api.NewResponse(req.RequestID, &api.ResultPayload{
		Loaded:  w.pipeline != nil,
		ModelID: w.modelID,
		Device:  w.device,
	}))
}

// handleClearCache discards the loaded pipeline and resets configuration.
// Always succeeds.
func (w *Worker) handleClearCache(ctx context.Context, req *api.WorkerRequest) {
	w.pipeline = nil
	w.modelID = ""
	w.device = ""
	observability.ModelLoaded.Set(0)
	w.send(ctx, api.NewResponse(req.RequestID, &api.ResultPayload{Loaded: false}))
}

func (w *Worker) handleInit(ctx context.Context, req *api.WorkerRequest) {
	modelID, device := w.resolveConfig(req.Payload)
	if err := w.ensureModel(ctx, req.RequestID, modelID, device); err != nil {
		w.send(ctx, api.NewErrorResponse(req.RequestID, err))
		return
	}
	w.send(ctx, api.NewResponse(req.RequestID, &api.ResultPayload{
		Loaded:  true,
		ModelID: w.modelID,
		Device:  w.device,
	}))
}

func (w *Worker) handleEmbed(ctx context.Context, req *api.WorkerRequest) {
	modelID, device := w.resolveConfig(req.Payload)
	if err := w.ensureModel(ctx, req.RequestID, modelID, device); err != nil {
		w.send(ctx, api.NewErrorResponse(req.RequestID, err))
		return
	}

	start := time.Now()
	texts := req.Payload.Texts
	embeddings := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := w.pipeline.Embed(ctx, text)
		if err != nil {
			observability.EmbedCallsTotal.WithLabelValues(w.modelID, "error").Inc()
			w.send(ctx, api.NewErrorResponse(req.RequestID,
				fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)))
			return
		}
		if len(vec) != w.pipeline.Dimension() {
			observability.EmbedCallsTotal.WithLabelValues(w.modelID, "error").Inc()
			w.send(ctx, api.NewErrorResponse(req.RequestID,
				api.NewDimensionMismatchError(w.pipeline.Dimension(), len(vec))))
			return
		}
		embeddings = append(embeddings, Normalize(vec))

		percent := math.Round(100 * float64(i+1) / float64(len(texts)))
		w.send(ctx, api.NewProgress(req.RequestID, api.ProgressPayload{
			Phase:   api.PhaseRunning,
			Percent: &percent,
			Index:   i + 1,
			Total:   len(texts),
		}))
	}

	observability.EmbedCallsTotal.WithLabelValues(w.modelID, "success").Inc()
	observability.EmbedDuration.WithLabelValues(w.modelID).Observe(time.Since(start).Seconds())
	w.send(ctx, api.NewResponse(req.RequestID, &api.ResultPayload{
		Loaded:     true,
		ModelID:    w.modelID,
		Device:     w.device,
		Embeddings: embeddings,
	}))
}

// ensureModel loads the requested configuration unless it is already
// active. Loading a different configuration supersedes the previous
// pipeline; the dropped reference is reclaimed by the garbage collector.
func (w *Worker) ensureModel(ctx context.Context, requestID, modelID, device string) error {
	if w.pipeline != nil && w.modelID == modelID && w.device == device {
		// Idempotent: same configuration, no network activity.
		return nil
	}

	tracker := newDownloadTracker(func(label string, percent *float64) {
		w.send(ctx, api.NewProgress(requestID, api.ProgressPayload{
			Phase:   api.PhaseLoading,
			Label:   label,
			Percent: percent,
		}))
	})

	w.logger.Info("loading model", "model_id", modelID, "device", device)
	loadStart := time.Now()
	pipeline, err := w.loader.Load(ctx, modelID, device, tracker.Update)
	if err != nil {
		return api.NewModelLoadFailureError(err.Error())
	}
	tracker.Complete()
	observability.ModelLoadDuration.WithLabelValues(modelID).Observe(time.Since(loadStart).Seconds())
	observability.ModelLoaded.Set(1)

	w.pipeline = pipeline
	w.modelID = modelID
	w.device = device
	return nil
}

func (w *Worker) resolveConfig(p *api.RequestPayload) (modelID, device string) {
	modelID = w.cfg.DefaultModelID
	device = w.cfg.DefaultDevice
	if p != nil {
		if p.ModelID != "" {
			modelID = p.ModelID
		}
		if p.Device != "" {
			device = p.Device
		}
	}
	return modelID, device
}

// send delivers a message to the outbox unless the worker is stopping.
func (w *Worker) send(ctx context.Context, msg api.WorkerMessage) {
	select {
	case w.out <- msg:
	case <-ctx.Done():
	}
}
