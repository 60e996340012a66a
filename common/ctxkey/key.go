package ctxkey

const (
	// RequestModel is the model string exactly as the client sent it. Set by
	// the chat-completions controller and echoed into every response and
	// stream chunk.
	RequestModel = "request_model"

	// ResolvedModel is the Bedrock runtime identifier (base model id or
	// inference-profile id) the request is dispatched to.
	ResolvedModel = "resolved_model"
)
