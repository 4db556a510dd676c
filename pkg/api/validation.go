package api

import "strings"

// knownRequestTypes is the set of request kinds the worker understands.
var knownRequestTypes = map[RequestType]bool{
	RequestInit:       true,
	RequestEmbed:      true,
	RequestStatus:     true,
	RequestClearCache: true,
}

// KnownRequestType reports whether t is a defined worker request kind.
func KnownRequestType(t RequestType) bool {
	return knownRequestTypes[t]
}

// ValidateRequest checks a worker request for structural problems before
// it is dispatched. It returns an *Error describing the first problem
// found, or nil.
func ValidateRequest(req *WorkerRequest) *Error {
	if req == nil {
		return NewInvalidInputError("request", "request must not be nil")
	}
	if req.RequestID == "" {
		return NewInvalidInputError("request_id", "request_id is required")
	}
	if !KnownRequestType(req.Type) {
		return NewUnknownMessageTypeError(string(req.Type))
	}
	if req.Type == RequestEmbed {
		return validateEmbedPayload(req.Payload)
	}
	return nil
}

// validateEmbedPayload enforces the embed contract: texts must be a
// non-empty sequence of non-blank strings.
func validateEmbedPayload(p *RequestPayload) *Error {
	if p == nil || len(p.Texts) == 0 {
		return NewInvalidInputError("texts", "texts must be a non-empty list of strings")
	}
	for _, text := range p.Texts {
		if strings.TrimSpace(text) == "" {
			return NewInvalidInputError("texts", "texts must not contain blank entries")
		}
	}
	return nil
}
