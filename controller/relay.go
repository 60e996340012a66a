package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/fuchsia74/bedrock-relay/common/config"
	"github.com/fuchsia74/bedrock-relay/common/ctxkey"
	"github.com/fuchsia74/bedrock-relay/common/graceful"
	"github.com/fuchsia74/bedrock-relay/monitor"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/anthropic"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/aws"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// maxRequestBodyBytes caps the accepted request body. Bedrock rejects bodies
// over its own limit anyway; capping here fails fast and bounds memory.
const maxRequestBodyBytes = 10 << 20

// RelayChatCompletions handles POST /v1/chat/completions: decode, resolve the
// model, translate, invoke Bedrock, and write back either one JSON completion
// or an SSE stream.
func RelayChatCompletions(c *gin.Context) {
	done := graceful.BeginRequest()
	defer done()

	lg := gmw.GetLogger(c)
	startTime := time.Now()
	route := "/v1/chat/completions"

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBodyBytes+1))
	if err != nil {
		abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
			"failed to read request body",
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
		return
	}
	if len(body) > maxRequestBodyBytes {
		abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
			"request body too large",
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
		return
	}

	var textRequest relaymodel.GeneralOpenAIRequest
	if err := json.Unmarshal(body, &textRequest); err != nil {
		abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
			"invalid JSON in request body: "+err.Error(),
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
		return
	}
	if textRequest.Model == "" {
		abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
			"model is required",
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
		return
	}
	if len(textRequest.Messages) == 0 {
		abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
			"messages must not be empty",
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
		return
	}
	c.Set(ctxkey.RequestModel, textRequest.Model)

	resolveCtx, cancelResolve := context.WithTimeout(gmw.Ctx(c), config.ModelsTimeout)
	resolvedModel, err := aws.Models.Resolve(resolveCtx, textRequest.Model)
	cancelResolve()
	if err != nil {
		if errors.Is(err, aws.ErrModelNotFound) {
			abortWithOpenAIError(c, openAIError(http.StatusNotFound,
				"model not found: "+textRequest.Model,
				relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeModelNotFound))
			return
		}
		lg.Error("failed to resolve model", zap.String("model", textRequest.Model), zap.Error(err))
		abortWithOpenAIError(c, openAIError(http.StatusInternalServerError,
			"failed to resolve model: "+err.Error(),
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError))
		return
	}
	c.Set(ctxkey.ResolvedModel, resolvedModel)

	claudeReq, err := anthropic.ConvertRequest(textRequest)
	if err != nil {
		if errors.Is(err, anthropic.ErrMissingToolFunction) {
			abortWithOpenAIError(c, openAIError(http.StatusBadRequest,
				err.Error(),
				relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeInvalidRequest))
			return
		}
		lg.Error("failed to convert request", zap.Error(err))
		abortWithOpenAIError(c, openAIError(http.StatusInternalServerError,
			"failed to convert request: "+err.Error(),
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError))
		return
	}
	payload, err := json.Marshal(claudeReq)
	if err != nil {
		abortWithOpenAIError(c, openAIError(http.StatusInternalServerError,
			"failed to marshal upstream request: "+err.Error(),
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError))
		return
	}

	ctx, cancel := context.WithTimeout(gmw.Ctx(c), config.RequestTimeout)
	defer cancel()
	resp, err := aws.Invoke(ctx, aws.InvokePath(resolvedModel, textRequest.Stream), payload, textRequest.Stream)
	if err != nil {
		lg.Error("failed to invoke bedrock",
			zap.String("resolved_model", resolvedModel), zap.Error(err))
		abortWithOpenAIError(c, openAIError(http.StatusInternalServerError,
			"failed to reach upstream: "+err.Error(),
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError))
		monitor.RecordRelayRequest(route, textRequest.Stream, http.StatusInternalServerError, time.Since(startTime))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		bizErr := bedrockError(resp.StatusCode, respBody)
		lg.Warn("bedrock returned an error",
			zap.Int("upstream_status", resp.StatusCode),
			zap.String("resolved_model", resolvedModel),
			zap.ByteString("body", respBody))
		abortWithOpenAIError(c, bizErr)
		monitor.RecordRelayRequest(route, textRequest.Stream, bizErr.StatusCode, time.Since(startTime))
		return
	}

	var bizErr *relaymodel.ErrorWithStatusCode
	var usage *relaymodel.Usage
	if textRequest.Stream {
		includeUsage := textRequest.StreamOptions != nil && textRequest.StreamOptions.IncludeUsage
		state := anthropic.NewStreamState(textRequest.Model, includeUsage)
		bizErr, usage = aws.StreamHandler(c, resp.Body, state)
	} else {
		bizErr, usage = aws.Handler(c, resp, textRequest.Model)
	}
	if bizErr != nil {
		lg.Error("relay failed", zap.Error(bizErr.RawError))
		abortWithOpenAIError(c, bizErr)
		monitor.RecordRelayRequest(route, textRequest.Stream, bizErr.StatusCode, time.Since(startTime))
		return
	}

	if usage != nil {
		lg.Info("relay completed",
			zap.String("model", textRequest.Model),
			zap.String("resolved_model", resolvedModel),
			zap.Bool("stream", textRequest.Stream),
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("completion_tokens", usage.CompletionTokens),
			zap.Duration("elapsed", time.Since(startTime)))
	}
	monitor.RecordRelayRequest(route, textRequest.Stream, http.StatusOK, time.Since(startTime))
}

// bedrockError shapes an upstream non-2xx answer into the northbound error
// envelope. The upstream message is preserved whenever one is present.
func bedrockError(statusCode int, body []byte) *relaymodel.ErrorWithStatusCode {
	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = gjson.GetBytes(body, "Message").String()
	}

	switch statusCode {
	case http.StatusNotFound:
		if message == "" {
			message = "model not found"
		}
		return openAIError(http.StatusNotFound, message,
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeModelNotFound)
	case http.StatusTooManyRequests:
		if message == "" {
			message = "rate limit exceeded"
		}
		return openAIError(http.StatusTooManyRequests, message,
			relaymodel.ErrTypeRateLimit, relaymodel.ErrCodeRateLimitExceeded)
	case http.StatusRequestTimeout:
		if message == "" {
			message = "upstream request timed out"
		}
		return openAIError(http.StatusRequestTimeout, message,
			relaymodel.ErrTypeServer, relaymodel.ErrCodeTimeout)
	default:
		// 403 lands here on purpose: a misconfigured relay credential is the
		// relay's fault, not the client's.
		if message == "" {
			message = "upstream request failed with status " + http.StatusText(statusCode)
		}
		return openAIError(http.StatusInternalServerError, message,
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError)
	}
}

func openAIError(statusCode int, message, errType string, code any) *relaymodel.ErrorWithStatusCode {
	return &relaymodel.ErrorWithStatusCode{
		StatusCode: statusCode,
		Error: relaymodel.Error{
			Message: message,
			Type:    errType,
			Code:    code,
		},
	}
}

func abortWithOpenAIError(c *gin.Context, e *relaymodel.ErrorWithStatusCode) {
	c.JSON(e.StatusCode, gin.H{
		"error": gin.H{
			"message": e.Error.Message,
			"type":    e.Error.Type,
			"code":    e.Error.Code,
		},
	})
	c.Abort()
}
