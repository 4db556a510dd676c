package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/transport"
)

// progressStream writes ingestion progress as SSE events:
//
//	event: progress
//	data: {"phase":"embedding","done":2,"total":5}
//
// followed by exactly one terminal event ("completed" with the ingest
// report, or "error" with the error envelope) and a [DONE] marker.
type progressStream struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	completed bool
}

// progressEvent is the payload of an SSE "progress" event.
type progressEvent struct {
	Phase string `json:"phase"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

func newProgressStream(w http.ResponseWriter) (*progressStream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s := &progressStream{w: w, rc: http.NewResponseController(w)}
	if err := s.rc.Flush(); err != nil {
		return nil, fmt.Errorf("response writer does not support streaming: %w", err)
	}
	return s, nil
}

func (s *progressStream) progress(phase string, done, total int) {
	if s.completed {
		return
	}
	s.event("progress", progressEvent{Phase: phase, Done: done, Total: total})
}

func (s *progressStream) complete(report IngestResponse) {
	if s.completed {
		return
	}
	s.event("completed", report)
	s.done()
}

func (s *progressStream) fail(err error) {
	if s.completed {
		return
	}
	var payload transport.ErrorBody
	if apiErr, ok := asAPIError(err); ok {
		payload.Error = apiErr
	} else {
		payload.Error = &api.Error{Name: api.ErrorStore, Message: err.Error()}
	}
	s.event("error", payload)
	s.done()
}

func (s *progressStream) event(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.rc.Flush()
}

func (s *progressStream) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.rc.Flush()
	s.completed = true
}

func asAPIError(err error) (*api.Error, bool) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
