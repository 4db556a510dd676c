// Package api defines the embedding worker message protocol and the
// error taxonomy shared across the inkwell service.
//
// The worker protocol is a JSON-serializable request/response/progress
// scheme correlated by request IDs. A request yields exactly one terminal
// response (ok or error) and zero or more progress notifications before
// that response. Messages that do not match the expected shape are
// ignored by consumers rather than treated as errors.
package api
