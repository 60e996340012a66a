package anthropic

import (
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

func TestConvertRequest_SystemExtraction(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Model: "claude-3-5-sonnet-20240620",
		Messages: []relaymodel.Message{
			{Role: "system", Content: "You are terse."},
			{Role: "user", Content: "Hello"},
			{Role: "system", Content: "Answer in French."},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	require.Equal(t, "You are terse.\nAnswer in French.", req.System)
	require.Len(t, req.Messages, 1)
	require.Equal(t, "user", req.Messages[0].Role)
	blocks, ok := req.Messages[0].Content.([]ContentBlock)
	require.True(t, ok)
	require.Len(t, blocks, 1)
	require.Equal(t, "text", blocks[0].Type)
	require.Equal(t, "Hello", blocks[0].Text)
}

func TestConvertRequest_MaxTokensFallback(t *testing.T) {
	base := relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{Role: "user", Content: "hi"}},
	}

	req, err := ConvertRequest(base)
	require.NoError(t, err)
	require.Equal(t, 8192, req.MaxTokens)

	withMax := base
	withMax.MaxTokens = 1024
	req, err = ConvertRequest(withMax)
	require.NoError(t, err)
	require.Equal(t, 1024, req.MaxTokens)

	completionTokens := 2048
	withCompletion := base
	withCompletion.MaxCompletionTokens = &completionTokens
	req, err = ConvertRequest(withCompletion)
	require.NoError(t, err)
	require.Equal(t, 2048, req.MaxTokens)

	// max_tokens wins over max_completion_tokens when both are present
	both := withCompletion
	both.MaxTokens = 512
	req, err = ConvertRequest(both)
	require.NoError(t, err)
	require.Equal(t, 512, req.MaxTokens)
}

func TestConvertRequest_StopSequences(t *testing.T) {
	base := relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{Role: "user", Content: "hi"}},
	}

	single := base
	single.Stop = "END"
	req, err := ConvertRequest(single)
	require.NoError(t, err)
	require.Equal(t, []string{"END"}, req.StopSequences)

	multi := base
	multi.Stop = []any{"a", "b"}
	req, err = ConvertRequest(multi)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, req.StopSequences)

	req, err = ConvertRequest(base)
	require.NoError(t, err)
	require.Nil(t, req.StopSequences)
}

func TestConvertRequest_ToolChoice(t *testing.T) {
	tools := []relaymodel.Tool{{
		Type: "function",
		Function: &relaymodel.Function{
			Name:       "get_weather",
			Parameters: map[string]any{"type": "object"},
		},
	}}
	base := relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{Role: "user", Content: "hi"}},
		Tools:    tools,
	}

	cases := []struct {
		name       string
		toolChoice any
		want       *ToolChoice
	}{
		{"auto", "auto", &ToolChoice{Type: "auto"}},
		{"required", "required", &ToolChoice{Type: "any"}},
		{"none", "none", nil},
		{"absent", nil, nil},
		{"forced function",
			map[string]any{"type": "function", "function": map[string]any{"name": "get_weather"}},
			&ToolChoice{Type: "tool", Name: "get_weather"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			in.ToolChoice = tc.toolChoice
			req, err := ConvertRequest(in)
			require.NoError(t, err)
			require.Equal(t, tc.want, req.ToolChoice)
			require.Len(t, req.Tools, 1)
			require.Equal(t, "get_weather", req.Tools[0].Name)
		})
	}
}

func TestConvertRequest_ToolChoiceWithoutTools(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages:   []relaymodel.Message{{Role: "user", Content: "hi"}},
		ToolChoice: "auto",
	})
	require.NoError(t, err)
	require.Nil(t, req.ToolChoice)
}

func TestConvertRequest_MissingToolFunction(t *testing.T) {
	_, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{Role: "user", Content: "hi"}},
		Tools: []relaymodel.Tool{
			{Type: "function", Function: &relaymodel.Function{Name: "ok"}},
			{Type: "function"},
		},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingToolFunction))
	require.Contains(t, err.Error(), "tools[1]")
}

func TestConvertRequest_AssistantToolCalls(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{
			{Role: "user", Content: "weather in Paris?"},
			{
				Role:    "assistant",
				Content: "Let me check.",
				ToolCalls: []relaymodel.Tool{{
					Id:   "call_1",
					Type: "function",
					Function: &relaymodel.Function{
						Name:      "get_weather",
						Arguments: `{"city":"Paris"}`,
					},
				}},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, req.Messages, 2)

	blocks, ok := req.Messages[1].Content.([]ContentBlock)
	require.True(t, ok)
	require.Len(t, blocks, 2)
	require.Equal(t, "text", blocks[0].Type)
	require.Equal(t, "Let me check.", blocks[0].Text)
	require.Equal(t, "tool_use", blocks[1].Type)
	require.Equal(t, "call_1", blocks[1].Id)
	require.Equal(t, "get_weather", blocks[1].Name)
	require.Equal(t, map[string]any{"city": "Paris"}, blocks[1].Input)
}

func TestConvertRequest_UnparsableToolArguments(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{
			{
				Role: "assistant",
				ToolCalls: []relaymodel.Tool{{
					Id:       "call_1",
					Type:     "function",
					Function: &relaymodel.Function{Name: "f", Arguments: "{not json"},
				}},
			},
		},
	})
	require.NoError(t, err)
	blocks := req.Messages[0].Content.([]ContentBlock)
	require.Equal(t, "{not json", blocks[0].Input)
}

func TestConvertRequest_EmptyAssistantMessage(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{Role: "assistant"}},
	})
	require.NoError(t, err)
	require.Equal(t, "", req.Messages[0].Content)
}

func TestConvertRequest_ToolResultMerging(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{
			{Role: "user", Content: "compare both cities"},
			{
				Role: "assistant",
				ToolCalls: []relaymodel.Tool{
					{Id: "call_1", Type: "function", Function: &relaymodel.Function{Name: "get_weather", Arguments: "{}"}},
					{Id: "call_2", Type: "function", Function: &relaymodel.Function{Name: "get_weather", Arguments: "{}"}},
				},
			},
			{Role: "tool", ToolCallId: "call_1", Content: "sunny"},
			{Role: "tool", ToolCallId: "call_2", Content: "rainy"},
			{Role: "user", Content: "thanks"},
			{Role: "tool", ToolCallId: "call_3", Content: "late result"},
		},
	})
	require.NoError(t, err)
	require.Len(t, req.Messages, 5)

	// both adjacent tool results fold into one user message
	merged, ok := req.Messages[2].Content.([]ContentBlock)
	require.True(t, ok)
	require.Equal(t, "user", req.Messages[2].Role)
	require.Len(t, merged, 2)
	require.Equal(t, "tool_result", merged[0].Type)
	require.Equal(t, "call_1", merged[0].ToolUseId)
	require.Equal(t, "sunny", merged[0].Content)
	require.Equal(t, "call_2", merged[1].ToolUseId)

	// a tool result after an ordinary user turn starts a fresh message
	tail, ok := req.Messages[4].Content.([]ContentBlock)
	require.True(t, ok)
	require.Len(t, tail, 1)
	require.Equal(t, "call_3", tail[0].ToolUseId)
}

func TestConvertRequest_MultiPartContentDropsImages(t *testing.T) {
	req, err := ConvertRequest(relaymodel.GeneralOpenAIRequest{
		Messages: []relaymodel.Message{{
			Role: "user",
			Content: []any{
				map[string]any{"type": "text", "text": "what is this?"},
				map[string]any{"type": "image_url", "image_url": map[string]any{"url": "https://example.com/x.png"}},
				map[string]any{"type": "text", "text": "please describe"},
			},
		}},
	})
	require.NoError(t, err)
	blocks := req.Messages[0].Content.([]ContentBlock)
	require.Len(t, blocks, 2)
	require.Equal(t, "what is this?", blocks[0].Text)
	require.Equal(t, "please describe", blocks[1].Text)
}

func TestStopReasonClaude2OpenAI(t *testing.T) {
	require.Equal(t, "stop", StopReasonClaude2OpenAI("end_turn"))
	require.Equal(t, "stop", StopReasonClaude2OpenAI("stop_sequence"))
	require.Equal(t, "length", StopReasonClaude2OpenAI("max_tokens"))
	require.Equal(t, "tool_calls", StopReasonClaude2OpenAI("tool_use"))
	require.Equal(t, "pause_turn", StopReasonClaude2OpenAI("pause_turn"))
}
