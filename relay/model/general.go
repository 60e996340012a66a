package model

// StreamOptions carries streaming behavior flags from the client.
type StreamOptions struct {
	// IncludeUsage requests one final chunk with an empty choices array and
	// the accumulated token usage.
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// GeneralOpenAIRequest is the decoded Chat Completions request body. Fields
// the relay does not understand are dropped on translation; the Bedrock body
// is rebuilt from scratch, so there is nothing to pass through on this side.
type GeneralOpenAIRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	MaxTokens           int  `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int `json:"max_completion_tokens,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`

	// Stop is either a single string or an array of strings.
	Stop any `json:"stop,omitempty"`

	Tools []Tool `json:"tools,omitempty"`
	// ToolChoice is "auto", "none", "required", or
	// {"type":"function","function":{"name":...}}.
	ToolChoice any `json:"tool_choice,omitempty"`

	// N is accepted for compatibility; the relay always produces one choice.
	N int `json:"n,omitempty"`
}
