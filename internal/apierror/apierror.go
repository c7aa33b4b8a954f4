// Package apierror provides the standardized error envelopes for the API.
// Every 4xx/5xx response goes through this package so clients always see a
// consistent shape and internals (stack traces, DB errors) never leak.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	// Code carries the machine-readable cause for domain errors
	// (e.g. "insufficient_funds"); empty for generic failures.
	Code string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// NewCoded builds an envelope with a machine-readable code so the admin panel
// can branch on the cause instead of matching message strings.
func NewCoded(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}
