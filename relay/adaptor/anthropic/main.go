package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/bedrock-relay/common/config"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// ErrMissingToolFunction marks a client tool entry without a function
// definition. The controller maps it to an invalid-request error.
var ErrMissingToolFunction = errors.New("tool has no function definition")

// ConvertRequest translates a Chat Completions request into an Anthropic
// Messages body for the Bedrock runtime. The translation is a pure function
// of its input.
func ConvertRequest(textRequest relaymodel.GeneralOpenAIRequest) (*Request, error) {
	claudeReq := &Request{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        textRequest.MaxTokens,
		Temperature:      textRequest.Temperature,
		TopP:             textRequest.TopP,
	}
	if claudeReq.MaxTokens == 0 && textRequest.MaxCompletionTokens != nil {
		claudeReq.MaxTokens = *textRequest.MaxCompletionTokens
	}
	if claudeReq.MaxTokens == 0 {
		claudeReq.MaxTokens = config.DefaultMaxToken
	}

	claudeReq.StopSequences = convertStop(textRequest.Stop)

	for i, tool := range textRequest.Tools {
		if tool.Function == nil {
			return nil, errors.Wrapf(ErrMissingToolFunction, "tools[%d]", i)
		}
		claudeReq.Tools = append(claudeReq.Tools, Tool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: tool.Function.Parameters,
		})
	}
	if len(claudeReq.Tools) > 0 {
		claudeReq.ToolChoice = convertToolChoice(textRequest.ToolChoice)
	}

	var systemParts []string
	for _, message := range textRequest.Messages {
		switch message.Role {
		case "system":
			systemParts = append(systemParts, message.StringContent())
		case "assistant":
			claudeReq.Messages = append(claudeReq.Messages, convertAssistantMessage(message))
		case "tool":
			appendToolResult(claudeReq, message)
		default:
			// user and any future roles share the string/parts content rules
			claudeReq.Messages = append(claudeReq.Messages, Message{
				Role:    message.Role,
				Content: textBlocks(message),
			})
		}
	}
	claudeReq.System = strings.Join(systemParts, "\n")

	return claudeReq, nil
}

// convertStop widens the client's stop field (string or array) to a list of
// stop sequences.
func convertStop(stop any) []string {
	switch v := stop.(type) {
	case string:
		return []string{v}
	case []any:
		var sequences []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				sequences = append(sequences, s)
			}
		}
		return sequences
	}
	return nil
}

// convertToolChoice maps the OpenAI tool_choice onto Anthropic's:
// auto -> auto, required -> any, none -> omitted, forced function -> tool.
func convertToolChoice(toolChoice any) *ToolChoice {
	switch v := toolChoice.(type) {
	case string:
		switch v {
		case "auto":
			return &ToolChoice{Type: "auto"}
		case "required":
			return &ToolChoice{Type: "any"}
		}
	case map[string]any:
		if fn, ok := v["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				return &ToolChoice{Type: "tool", Name: name}
			}
		}
	}
	return nil
}

// textBlocks renders a message's content as text blocks. Non-text parts
// (images) are dropped for now.
func textBlocks(message relaymodel.Message) []ContentBlock {
	var blocks []ContentBlock
	if message.IsStringContent() {
		return []ContentBlock{{Type: "text", Text: message.StringContent()}}
	}
	for _, part := range message.ParseContent() {
		if part.Type != relaymodel.ContentTypeText {
			continue
		}
		blocks = append(blocks, ContentBlock{Type: "text", Text: part.Text})
	}
	return blocks
}

// convertAssistantMessage emits the assistant's text blocks followed by one
// tool_use block per tool call. A fully empty assistant turn becomes an
// empty-string content, which Bedrock accepts where an empty block list is
// rejected.
func convertAssistantMessage(message relaymodel.Message) Message {
	var blocks []ContentBlock
	for _, part := range message.ParseContent() {
		if part.Type != relaymodel.ContentTypeText || part.Text == "" {
			continue
		}
		blocks = append(blocks, ContentBlock{Type: "text", Text: part.Text})
	}
	for _, call := range message.ToolCalls {
		block := ContentBlock{Type: "tool_use", Id: call.Id}
		if call.Function != nil {
			block.Name = call.Function.Name
			block.Input = parseToolArguments(call.Function.Arguments)
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return Message{Role: "assistant", Content: ""}
	}
	return Message{Role: "assistant", Content: blocks}
}

// parseToolArguments decodes the tool call's JSON-encoded argument string.
// Arguments that fail to parse travel as the raw string so nothing is lost.
func parseToolArguments(arguments any) any {
	raw, ok := arguments.(string)
	if !ok {
		return arguments
	}
	var input any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return raw
	}
	return input
}

// appendToolResult folds a role=tool message into the request. Consecutive
// tool results must land in a single user message: Bedrock rejects a
// conversation where tool_result blocks are spread over adjacent messages.
func appendToolResult(claudeReq *Request, message relaymodel.Message) {
	block := ContentBlock{
		Type:      "tool_result",
		ToolUseId: message.ToolCallId,
		Content:   message.StringContent(),
	}
	if n := len(claudeReq.Messages); n > 0 {
		last := &claudeReq.Messages[n-1]
		if blocks, ok := last.Content.([]ContentBlock); ok && last.Role == "user" && allToolResults(blocks) {
			last.Content = append(blocks, block)
			return
		}
	}
	claudeReq.Messages = append(claudeReq.Messages, Message{
		Role:    "user",
		Content: []ContentBlock{block},
	})
}

func allToolResults(blocks []ContentBlock) bool {
	if len(blocks) == 0 {
		return false
	}
	for _, b := range blocks {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}

// StopReasonClaude2OpenAI maps Anthropic stop reasons onto OpenAI finish
// reasons. Unknown reasons pass through untouched so new upstream values do
// not break clients that ignore them.
func StopReasonClaude2OpenAI(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}
