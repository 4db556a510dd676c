// Package transport defines the HTTP middleware chain and error mapping
// for the inkwell API surface.
//
// The transport layer bridges external clients and the internal search
// and ingestion services. It maps the structured error taxonomy from
// pkg/api and the storage sentinels onto HTTP status codes, and provides
// middleware for panic recovery, request ID assignment (X-Request-ID),
// and structured logging via log/slog.
//
// HTTP serving uses net/http with Go 1.22+ ServeMux routing patterns;
// SSE flushing uses http.NewResponseController.
package transport
