package model

// Usage is the token usage information returned by the OpenAI API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error is the OpenAI error envelope body.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
	// RawError preserves the original upstream or internal error for
	// diagnostics. Omitted from JSON to avoid leaking provider internals.
	RawError error `json:"-"`
}

// ErrorWithStatusCode pairs an OpenAI error body with the HTTP status the
// relay should answer with.
type ErrorWithStatusCode struct {
	Error
	StatusCode int `json:"status_code"`
}

// Error type and code constants for the northbound error surface.
const (
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeRateLimit      = "rate_limit_error"
	ErrTypeServer         = "server_error"

	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeModelNotFound     = "model_not_found"
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeTimeout           = "timeout"
	ErrCodeServerError       = "server_error"
	ErrCodeInvalidAPIKey     = "invalid_api_key"
)
