// Package apierror provides the error envelopes of the API.
// Every 4xx/5xx body goes through here so internals (stack traces, SQL errors)
// never reach clients.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	// Code is set for failures clients must tell apart, e.g. "CONSISTENCY"
	Code string `json:"code,omitempty"`
	// Op names the coupled write that failed halfway
	Op string `json:"op,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Consistency reports a write that stored only part of what it had to.
func Consistency(op string) *APIError {
	return &APIError{
		Detail: "A operação foi gravada parcialmente e precisa de revisão",
		Code:   "CONSISTENCY",
		Op:     op,
	}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}
