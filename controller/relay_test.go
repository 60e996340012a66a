package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

func postChatCompletions(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		bytes.NewBufferString(body))

	RelayChatCompletions(c)
	return recorder
}

func errorBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var parsed struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &parsed))
	require.NotNil(t, parsed.Error)
	return parsed.Error
}

func TestRelayChatCompletions_InvalidJSON(t *testing.T) {
	recorder := postChatCompletions(t, `{not json`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errObj := errorBody(t, recorder)
	require.Equal(t, relaymodel.ErrTypeInvalidRequest, errObj["type"])
	require.Equal(t, relaymodel.ErrCodeInvalidRequest, errObj["code"])
}

func TestRelayChatCompletions_MissingModel(t *testing.T) {
	recorder := postChatCompletions(t, `{"messages": [{"role": "user", "content": "hi"}]}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, errorBody(t, recorder)["message"], "model")
}

func TestRelayChatCompletions_EmptyMessages(t *testing.T) {
	recorder := postChatCompletions(t, `{"model": "claude-3-haiku-20240307", "messages": []}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, errorBody(t, recorder)["message"], "messages")
}

func TestRelayChatCompletions_OversizedBody(t *testing.T) {
	huge := `{"model": "m", "messages": [{"role": "user", "content": "` +
		strings.Repeat("x", maxRequestBodyBytes+1) + `"}]}`
	recorder := postChatCompletions(t, huge)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, errorBody(t, recorder)["message"], "too large")
}

func TestBedrockError(t *testing.T) {
	cases := []struct {
		name           string
		upstreamStatus int
		body           string
		wantStatus     int
		wantType       string
		wantCode       string
		wantMessage    string
	}{
		{
			name:           "throttled",
			upstreamStatus: http.StatusTooManyRequests,
			body:           `{"message": "Too many requests, please wait"}`,
			wantStatus:     http.StatusTooManyRequests,
			wantType:       relaymodel.ErrTypeRateLimit,
			wantCode:       relaymodel.ErrCodeRateLimitExceeded,
			wantMessage:    "Too many requests, please wait",
		},
		{
			name:           "model missing upstream",
			upstreamStatus: http.StatusNotFound,
			body:           `{"message": "model does not exist"}`,
			wantStatus:     http.StatusNotFound,
			wantType:       relaymodel.ErrTypeInvalidRequest,
			wantCode:       relaymodel.ErrCodeModelNotFound,
			wantMessage:    "model does not exist",
		},
		{
			name:           "timeout",
			upstreamStatus: http.StatusRequestTimeout,
			body:           `{}`,
			wantStatus:     http.StatusRequestTimeout,
			wantType:       relaymodel.ErrTypeServer,
			wantCode:       relaymodel.ErrCodeTimeout,
			wantMessage:    "upstream request timed out",
		},
		{
			name:           "forbidden surfaces as relay fault",
			upstreamStatus: http.StatusForbidden,
			body:           `{"Message": "User is not authorized to perform bedrock:InvokeModel"}`,
			wantStatus:     http.StatusInternalServerError,
			wantType:       relaymodel.ErrTypeServer,
			wantCode:       relaymodel.ErrCodeServerError,
			wantMessage:    "User is not authorized to perform bedrock:InvokeModel",
		},
		{
			name:           "opaque upstream failure",
			upstreamStatus: http.StatusBadGateway,
			body:           `garbage`,
			wantStatus:     http.StatusInternalServerError,
			wantType:       relaymodel.ErrTypeServer,
			wantCode:       relaymodel.ErrCodeServerError,
			wantMessage:    "upstream request failed with status Bad Gateway",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := bedrockError(tc.upstreamStatus, []byte(tc.body))
			require.Equal(t, tc.wantStatus, got.StatusCode)
			require.Equal(t, tc.wantType, got.Error.Type)
			require.Equal(t, tc.wantCode, got.Error.Code)
			require.Equal(t, tc.wantMessage, got.Error.Message)
		})
	}
}

func TestAbortWithOpenAIError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	abortWithOpenAIError(c, openAIError(http.StatusNotFound, "model not found: x",
		relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeModelNotFound))

	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.JSONEq(t, `{
		"error": {
			"message": "model not found: x",
			"type": "invalid_request_error",
			"code": "model_not_found"
		}
	}`, recorder.Body.String())
}
