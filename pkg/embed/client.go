package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwell-dev/inkwell/pkg/api"
)

// DefaultCallTimeout is the per-call deadline used when a call carries
// no explicit timeout.
const DefaultCallTimeout = 60 * time.Second

// ProgressHandler receives progress payloads for one logical call, in
// arrival order, always before the call's terminal result.
type ProgressHandler func(api.ProgressPayload)

// CallOption configures a single logical call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout    time.Duration
	onProgress ProgressHandler
}

// WithTimeout overrides the call's timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithProgress registers a progress callback for the call.
func WithProgress(fn ProgressHandler) CallOption {
	return func(o *callOptions) { o.onProgress = fn }
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTimeout sets the timeout applied to calls without an
// explicit WithTimeout option.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientLogger sets the structured logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client multiplexes concurrent logical calls over a single worker's
// message channels. Each call gets a fresh request ID; responses and
// progress are routed back by that ID. Late responses for timed-out
// calls are dropped without effect.
type Client struct {
	mu       sync.Mutex
	pending  map[string]*pendingCall
	disposed bool

	inbox   chan<- *api.WorkerRequest
	cancel  context.CancelFunc
	done    chan struct{}
	timeout time.Duration
	logger  *slog.Logger
}

type pendingCall struct {
	terminal   chan *api.WorkerResponse
	onProgress ProgressHandler
	timer      *time.Timer
}

// NewClient starts the worker and the dispatch loop. The returned
// client owns the worker: Dispose terminates it.
func NewClient(worker *Worker, opts ...ClientOption) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		pending: make(map[string]*pendingCall),
		inbox:   worker.Requests(),
		cancel:  cancel,
		done:    make(chan struct{}),
		timeout: DefaultCallTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	worker.Start(ctx)
	go c.dispatch(worker.Messages())

	return c
}

// dispatch routes worker messages to pending calls. Progress for a call
// is delivered on this goroutine before its terminal response is routed,
// preserving per-call ordering. Messages with unknown request IDs are
// ignored.
func (c *Client) dispatch(msgs <-chan api.WorkerMessage) {
	defer close(c.done)
	for msg := range msgs {
		switch m := msg.(type) {
		case *api.WorkerProgress:
			c.mu.Lock()
			call := c.pending[m.RequestID]
			c.mu.Unlock()
			if call != nil && call.onProgress != nil {
				call.onProgress(m.Payload)
			}
		case *api.WorkerResponse:
			c.mu.Lock()
			call := c.pending[m.RequestID]
			delete(c.pending, m.RequestID)
			c.mu.Unlock()
			if call == nil {
				// Late response for a timed-out or unknown call.
				continue
			}
			call.timer.Stop()
			call.terminal <- m
		default:
			// Not a recognized message shape; ignore without error.
		}
	}
}

// Call performs one logical request against the worker and blocks until
// the terminal response, the timeout, or ctx cancellation.
func (c *Client) Call(ctx context.Context, reqType api.RequestType, payload *api.RequestPayload, opts ...CallOption) (*api.ResultPayload, error) {
	options := callOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&options)
	}

	id := api.NewRequestID()
	call := &pendingCall{
		terminal:   make(chan *api.WorkerResponse, 1),
		onProgress: options.onProgress,
	}
	call.timer = time.AfterFunc(options.timeout, func() {
		c.expire(id, options.timeout)
	})

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		call.timer.Stop()
		return nil, api.NewClientDisposedError()
	}
	c.pending[id] = call
	c.mu.Unlock()

	req := &api.WorkerRequest{Type: reqType, RequestID: id, Payload: payload}
	select {
	case c.inbox <- req:
	case <-ctx.Done():
		c.remove(id)
		call.timer.Stop()
		return nil, ctx.Err()
	case <-c.done:
		c.remove(id)
		call.timer.Stop()
		return nil, api.NewClientDisposedError()
	}

	select {
	case resp := <-call.terminal:
		if resp.OK {
			return resp.Result, nil
		}
		return nil, resp.Error.Err()
	case <-ctx.Done():
		c.remove(id)
		call.timer.Stop()
		return nil, ctx.Err()
	}
}

// expire rejects a call that saw no terminal response within its
// timeout and removes it from the pending set. A response arriving
// afterwards finds no pending entry and is dropped.
func (c *Client) expire(id string, timeout time.Duration) {
	c.mu.Lock()
	call := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if call == nil {
		return
	}
	call.terminal <- api.NewErrorResponse(id,
		api.NewTimeoutError(fmt.Sprintf("no response within %s", timeout)))
}

func (c *Client) remove(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Dispose rejects every pending call with a disposal error, stops their
// timers, and terminates the worker. Safe to call multiple times and
// with zero pending calls.
func (c *Client) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	calls := c.pending
	c.pending = make(map[string]*pendingCall)
	c.mu.Unlock()

	for id, call := range calls {
		call.timer.Stop()
		call.terminal <- api.NewErrorResponse(id, api.NewClientDisposedError())
	}

	c.cancel()
}

// Init ensures the given model configuration is loaded.
func (c *Client) Init(ctx context.Context, modelID, device string, opts ...CallOption) (*api.ResultPayload, error) {
	return c.Call(ctx, api.RequestInit, &api.RequestPayload{ModelID: modelID, Device: device}, opts...)
}

// Embed computes one embedding per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string, opts ...CallOption) (*api.ResultPayload, error) {
	return c.Call(ctx, api.RequestEmbed, &api.RequestPayload{Texts: texts}, opts...)
}

// Status reports the worker's current model configuration.
func (c *Client) Status(ctx context.Context, opts ...CallOption) (*api.ResultPayload, error) {
	return c.Call(ctx, api.RequestStatus, nil, opts...)
}

// ClearCache discards the worker's loaded model.
func (c *Client) ClearCache(ctx context.Context, opts ...CallOption) (*api.ResultPayload, error) {
	return c.Call(ctx, api.RequestClearCache, nil, opts...)
}
