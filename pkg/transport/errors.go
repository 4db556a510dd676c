package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkwell-dev/inkwell/pkg/api"
	"github.com/inkwell-dev/inkwell/pkg/storage"
)

// ErrorBody is the JSON error envelope returned to clients.
type ErrorBody struct {
	Error *api.Error `json:"error"`
}

// HTTPStatusFromError maps an error to the corresponding HTTP status
// code. Structured api.Error values map by taxonomy name; storage
// sentinels map to 404 and 409; everything else is a 500.
func HTTPStatusFromError(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, storage.ErrConflict) {
		return http.StatusConflict
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Name {
	case api.ErrorInvalidInput, api.ErrorDimensionMismatch, api.ErrorUnknownMessageType:
		return http.StatusBadRequest
	case api.ErrorTimeout:
		return http.StatusGatewayTimeout
	case api.ErrorModelLoadFailure, api.ErrorStore:
		return http.StatusBadGateway
	case api.ErrorClientDisposed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes a JSON error response, deriving the HTTP status code
// from the error. Non-structured errors are wrapped so clients always
// see the same envelope; 5xx details are not echoed back.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatusFromError(err)

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			apiErr = &api.Error{Name: api.ErrorStore, Message: "not found"}
		case errors.Is(err, storage.ErrConflict):
			apiErr = &api.Error{Name: api.ErrorStore, Message: "conflict"}
		case status >= http.StatusInternalServerError:
			apiErr = &api.Error{Name: api.ErrorStore, Message: "internal error"}
		default:
			apiErr = &api.Error{Name: api.ErrorInvalidInput, Message: err.Error()}
		}
	}

	WriteErrorResponse(w, apiErr, status)
}

// WriteErrorResponse writes a JSON error response with an explicit
// status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.Error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorBody{Error: apiErr})
}
