package anthropic

import (
	"github.com/tidwall/gjson"

	"github.com/fuchsia74/bedrock-relay/common/helper"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// ResponseBedrock2OpenAI reshapes a Bedrock/Anthropic response body into an
// OpenAI chat completion. The body is read by targeted extraction rather than
// a strict schema so unknown upstream fields never break decoding.
func ResponseBedrock2OpenAI(respBody []byte, originalModel string) *TextResponse {
	root := gjson.ParseBytes(respBody)

	id := helper.GenChatCompletionID()
	if respID := root.Get("id").String(); respID != "" {
		id = "chatcmpl-" + respID
	}

	var text string
	var hasText bool
	var toolCalls []relaymodel.Tool
	root.Get("content").ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			text += block.Get("text").String()
			hasText = true
		case "tool_use":
			arguments := block.Get("input").Raw
			if arguments == "" {
				arguments = "{}"
			}
			toolCalls = append(toolCalls, relaymodel.Tool{
				Id:   block.Get("id").String(),
				Type: "function",
				Function: &relaymodel.Function{
					Name:      block.Get("name").String(),
					Arguments: arguments,
				},
			})
		}
		return true
	})

	var content any
	if hasText {
		content = text
	}

	response := &TextResponse{
		Id:      id,
		Object:  "chat.completion",
		Created: helper.GetTimestamp(),
		Model:   originalModel,
		Choices: []TextResponseChoice{{
			Index: 0,
			Message: ResponseMessage{
				Role:      "assistant",
				Content:   content,
				ToolCalls: toolCalls,
			},
			FinishReason: StopReasonClaude2OpenAI(root.Get("stop_reason").String()),
		}},
	}

	inputTokens := root.Get("usage.input_tokens")
	outputTokens := root.Get("usage.output_tokens")
	if inputTokens.Exists() && outputTokens.Exists() {
		response.Usage = &relaymodel.Usage{
			PromptTokens:     int(inputTokens.Int()),
			CompletionTokens: int(outputTokens.Int()),
			TotalTokens:      int(inputTokens.Int() + outputTokens.Int()),
		}
	}
	return response
}
