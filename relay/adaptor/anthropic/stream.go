package anthropic

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
	"github.com/tidwall/gjson"

	"github.com/fuchsia74/bedrock-relay/common/helper"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// DoneLine is the SSE terminator every stream ends with.
const DoneLine = "data: [DONE]\n\n"

// StreamState threads the per-stream bookkeeping through ProcessEvent: the
// chunk id, the echoed model, the created timestamp, token counters, and the
// running tool-call index. One instance lives for exactly one streaming call.
type StreamState struct {
	id      string
	model   string
	created int64

	inputTokens  int
	outputTokens int

	toolCallIndex  int
	inToolUseBlock bool

	includeUsage bool
}

// NewStreamState builds the encoder state for one streaming call. The model
// is the client's original string, echoed into every chunk.
func NewStreamState(originalModel string, includeUsage bool) *StreamState {
	return &StreamState{
		model:        originalModel,
		includeUsage: includeUsage,
	}
}

// Usage reports the tokens observed so far.
func (s *StreamState) Usage() *relaymodel.Usage {
	return &relaymodel.Usage{
		PromptTokens:     s.inputTokens,
		CompletionTokens: s.outputTokens,
		TotalTokens:      s.inputTokens + s.outputTokens,
	}
}

// ProcessEvent translates one decoded Anthropic streaming event into zero or
// more SSE lines. Unknown event kinds yield the empty string, never an error,
// so upstream protocol additions degrade to no-ops.
func (s *StreamState) ProcessEvent(event []byte) (string, error) {
	root := gjson.ParseBytes(event)

	switch root.Get("type").String() {
	case "message_start":
		s.id = helper.GenChatCompletionID()
		if messageID := root.Get("message.id").String(); messageID != "" {
			s.id = "chatcmpl-" + messageID
		}
		s.created = helper.GetTimestamp()
		s.inputTokens = int(root.Get("message.usage.input_tokens").Int())
		return s.renderChunk(StreamDelta{Role: "assistant", Content: ""}, nil)

	case "content_block_start":
		if root.Get("content_block.type").String() != "tool_use" {
			s.inToolUseBlock = false
			return "", nil
		}
		s.inToolUseBlock = true
		index := s.toolCallIndex
		return s.renderChunk(StreamDelta{
			Role: "assistant",
			ToolCalls: []relaymodel.Tool{{
				Index: &index,
				Id:    root.Get("content_block.id").String(),
				Type:  "function",
				Function: &relaymodel.Function{
					Name:      root.Get("content_block.name").String(),
					Arguments: "",
				},
			}},
		}, nil)

	case "content_block_delta":
		switch root.Get("delta.type").String() {
		case "text_delta":
			return s.renderChunk(StreamDelta{
				Role:    "assistant",
				Content: root.Get("delta.text").String(),
			}, nil)
		case "input_json_delta":
			index := s.toolCallIndex
			return s.renderChunk(StreamDelta{
				Role: "assistant",
				ToolCalls: []relaymodel.Tool{{
					Index: &index,
					Function: &relaymodel.Function{
						Arguments: root.Get("delta.partial_json").String(),
					},
				}},
			}, nil)
		}
		return "", nil

	case "content_block_stop":
		if s.inToolUseBlock {
			s.toolCallIndex++
			s.inToolUseBlock = false
		}
		return "", nil

	case "message_delta":
		if outputTokens := root.Get("usage.output_tokens"); outputTokens.Exists() {
			s.outputTokens = int(outputTokens.Int())
		}
		finishReason := StopReasonClaude2OpenAI(root.Get("delta.stop_reason").String())
		return s.renderChunk(StreamDelta{Role: "assistant"}, &finishReason)

	case "message_stop":
		if !s.includeUsage {
			return DoneLine, nil
		}
		usageChunk := ChatCompletionsStreamResponse{
			Id:      s.id,
			Object:  "chat.completion.chunk",
			Created: s.created,
			Model:   s.model,
			Choices: []ChatCompletionsStreamResponseChoice{},
			Usage:   s.Usage(),
		}
		line, err := renderSSE(usageChunk)
		if err != nil {
			return "", err
		}
		return line + DoneLine, nil
	}

	return "", nil
}

func (s *StreamState) renderChunk(delta StreamDelta, finishReason *string) (string, error) {
	chunk := ChatCompletionsStreamResponse{
		Id:      s.id,
		Object:  "chat.completion.chunk",
		Created: s.created,
		Model:   s.model,
		Choices: []ChatCompletionsStreamResponseChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finishReason,
		}},
	}
	return renderSSE(chunk)
}

func renderSSE(chunk ChatCompletionsStreamResponse) (string, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return "", errors.Wrap(err, "marshal stream chunk")
	}
	return "data: " + string(payload) + "\n\n", nil
}
