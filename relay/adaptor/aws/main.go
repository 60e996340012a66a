package aws

import (
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/bedrock-relay/common"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/anthropic"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/aws/utils"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// heartbeatInterval paces the ": processing" comment lines emitted while the
// model is still thinking. Heartbeats stop at the first decoded event.
const heartbeatInterval = 5 * time.Second

// Handler finishes a unary call: the Bedrock response body is reshaped into
// an OpenAI completion and written as JSON.
func Handler(c *gin.Context, resp *http.Response, originalModel string) (*relaymodel.ErrorWithStatusCode, *relaymodel.Usage) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.WrapErr(errors.Wrap(err, "read bedrock response")), nil
	}
	textResponse := anthropic.ResponseBedrock2OpenAI(body, originalModel)
	c.JSON(http.StatusOK, textResponse)
	return nil, textResponse.Usage
}

// StreamHandler finishes a streaming call. It commits the SSE headers
// immediately, heartbeats until the first upstream event, then relays every
// encoded chunk in order. Errors after the headers are committed are logged
// and terminate the body cleanly; no partial data line is ever written.
func StreamHandler(c *gin.Context, upstream io.Reader, state *anthropic.StreamState) (*relaymodel.ErrorWithStatusCode, *relaymodel.Usage) {
	lg := gmw.GetLogger(c)
	ctx := gmw.Ctx(c)

	common.SetEventStreamHeaders(c)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	events := make(chan []byte, 8)
	decodeErr := make(chan error, 1)
	go func() {
		defer close(events)
		decoder := NewStreamDecoder(upstream)
		for {
			event, err := decoder.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					decodeErr <- err
				}
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	sawFirstEvent := false

	for {
		select {
		case <-ctx.Done():
			lg.Debug("client disconnected or deadline exceeded mid-stream")
			return nil, state.Usage()

		case <-heartbeat.C:
			// An already-buffered event wins over a due heartbeat.
			if sawFirstEvent || len(events) > 0 {
				continue
			}
			if err := common.WriteSSE(c, ": processing\n\n"); err != nil {
				lg.Debug("failed to write heartbeat", zap.Error(err))
				return nil, state.Usage()
			}

		case event, ok := <-events:
			if !ok {
				select {
				case err := <-decodeErr:
					lg.Error("upstream stream terminated abnormally", zap.Error(err))
				default:
				}
				return nil, state.Usage()
			}
			if !sawFirstEvent {
				sawFirstEvent = true
				heartbeat.Stop()
			}
			out, err := state.ProcessEvent(event)
			if err != nil {
				lg.Error("failed to encode stream event", zap.Error(err))
				return nil, state.Usage()
			}
			if out == "" {
				continue
			}
			if err := common.WriteSSE(c, out); err != nil {
				lg.Debug("client write failed mid-stream", zap.Error(err))
				return nil, state.Usage()
			}
		}
	}
}
