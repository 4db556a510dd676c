package api

// RequestType identifies a worker request kind.
type RequestType string

const (
	RequestInit       RequestType = "init"
	RequestEmbed      RequestType = "embed"
	RequestStatus     RequestType = "status"
	RequestClearCache RequestType = "clearCache"
)

// Phase identifies what a progress notification reports on.
type Phase string

const (
	// PhaseLoading covers model download and initialization.
	PhaseLoading Phase = "loading"
	// PhaseRunning covers per-text embedding inside an embed call.
	PhaseRunning Phase = "running"
)

// WorkerRequest is a message sent to the embedding worker.
type WorkerRequest struct {
	Type      RequestType     `json:"type"`
	RequestID string          `json:"request_id"`
	Payload   *RequestPayload `json:"payload,omitempty"`
}

// RequestPayload carries the parameters of an init or embed request.
// ModelID and Device are optional; the worker falls back to its
// configured defaults when they are empty.
type RequestPayload struct {
	ModelID string   `json:"model_id,omitempty"`
	Device  string   `json:"device,omitempty"`
	Texts   []string `json:"texts,omitempty"`
}

// WorkerResponse is the single terminal message of a call. OK selects
// between Result and Error.
type WorkerResponse struct {
	Type      string         `json:"type"` // always "response"
	RequestID string         `json:"request_id"`
	OK        bool           `json:"ok"`
	Result    *ResultPayload `json:"result,omitempty"`
	Error     *WorkerError   `json:"error,omitempty"`
}

// ResultPayload is the success payload of a worker response.
type ResultPayload struct {
	// Loaded reports whether a model is currently loaded (status calls).
	Loaded bool `json:"loaded"`
	// ModelID and Device describe the active model configuration.
	ModelID string `json:"model_id,omitempty"`
	Device  string `json:"device,omitempty"`
	// Embeddings holds one vector per input text, in input order
	// (embed calls only).
	Embeddings [][]float32 `json:"embeddings,omitempty"`
}

// WorkerError is the failure payload of a worker response. It mirrors
// *Error but keeps the optional stack the worker captured.
type WorkerError struct {
	Name    ErrorName `json:"name,omitempty"`
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
}

// Err converts the wire error into an *Error.
func (e *WorkerError) Err() *Error {
	name := e.Name
	if name == "" {
		name = ErrorModelLoadFailure
	}
	return &Error{Name: name, Message: e.Message}
}

// WrapError converts any error into a WorkerError, preserving the
// taxonomy name when err is an *Error.
func WrapError(err error) *WorkerError {
	if apiErr, ok := err.(*Error); ok {
		return &WorkerError{Name: apiErr.Name, Message: apiErr.Message}
	}
	return &WorkerError{Message: err.Error()}
}

// WorkerProgress is a non-terminal notification for an in-flight call.
type WorkerProgress struct {
	Type      string          `json:"type"` // always "progress"
	RequestID string          `json:"request_id"`
	Payload   ProgressPayload `json:"payload"`
}

// ProgressPayload describes incremental progress. Percent is nil when
// the total amount of work is unknown (indeterminate progress).
type ProgressPayload struct {
	Phase   Phase    `json:"phase"`
	Label   string   `json:"label,omitempty"`
	Percent *float64 `json:"percent"`
	Index   int      `json:"index,omitempty"`
	Total   int      `json:"total,omitempty"`
}

// WorkerMessage is the union of messages flowing out of the worker.
// Only WorkerResponse and WorkerProgress implement it; consumers
// type-switch on the concrete type and ignore anything else.
type WorkerMessage interface {
	workerMessage()
}

func (*WorkerResponse) workerMessage() {}
func (*WorkerProgress) workerMessage() {}

// NewResponse builds a terminal success message.
func NewResponse(requestID string, result *ResultPayload) *WorkerResponse {
	return &WorkerResponse{Type: "response", RequestID: requestID, OK: true, Result: result}
}

// NewErrorResponse builds a terminal failure message.
func NewErrorResponse(requestID string, err error) *WorkerResponse {
	return &WorkerResponse{Type: "response", RequestID: requestID, OK: false, Error: WrapError(err)}
}

// NewProgress builds a progress message.
func NewProgress(requestID string, payload ProgressPayload) *WorkerProgress {
	return &WorkerProgress{Type: "progress", RequestID: requestID, Payload: payload}
}

// Percent returns a pointer to v, for building determinate progress payloads.
func Percent(v float64) *float64 {
	return &v
}
