package anthropic

import (
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// AnthropicVersion is the fixed protocol version Bedrock expects in every
// invoke body.
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html
const AnthropicVersion = "bedrock-2023-05-31"

// Request is the Anthropic Messages body sent to the Bedrock runtime.
type Request struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	System           string    `json:"system,omitempty"`
	Messages         []Message `json:"messages"`

	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`

	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`
}

// Message is one turn of the conversation. Content is either a plain string
// or a []ContentBlock.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentBlock is one typed block of message content: text, tool_use, or
// tool_result.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	Id    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`

	// tool_result
	ToolUseId string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// Tool is an Anthropic tool definition.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema,omitempty"`
}

// ToolChoice selects how the model may use tools: auto, any, or a specific
// tool by name.
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// TextResponse is the OpenAI-shaped unary chat completion the relay returns.
type TextResponse struct {
	Id      string               `json:"id"`
	Object  string               `json:"object"`
	Created int64                `json:"created"`
	Model   string               `json:"model"`
	Choices []TextResponseChoice `json:"choices"`
	Usage   *relaymodel.Usage    `json:"usage,omitempty"`
}

// TextResponseChoice is one completion choice; the relay always produces
// exactly one.
type TextResponseChoice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage deliberately keeps content and tool_calls without omitempty
// so that an absent value is rendered as JSON null, matching the upstream API.
type ResponseMessage struct {
	Role      string            `json:"role"`
	Content   any               `json:"content"`
	ToolCalls []relaymodel.Tool `json:"tool_calls"`
}

// ChatCompletionsStreamResponse is one OpenAI SSE chunk.
type ChatCompletionsStreamResponse struct {
	Id      string                                `json:"id"`
	Object  string                                `json:"object"`
	Created int64                                 `json:"created"`
	Model   string                                `json:"model"`
	Choices []ChatCompletionsStreamResponseChoice `json:"choices"`
	Usage   *relaymodel.Usage                     `json:"usage,omitempty"`
}

// ChatCompletionsStreamResponseChoice carries the delta of one chunk.
// FinishReason is a pointer so intermediate chunks render "finish_reason":null.
type ChatCompletionsStreamResponseChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta is the incremental message payload of a stream chunk. Content
// is typed any so the empty string survives omitempty in the opening chunk.
type StreamDelta struct {
	Role      string            `json:"role,omitempty"`
	Content   any               `json:"content,omitempty"`
	ToolCalls []relaymodel.Tool `json:"tool_calls,omitempty"`
}
