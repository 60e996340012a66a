package client

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/bedrock-relay/common/config"
	"github.com/fuchsia74/bedrock-relay/common/logger"
)

var (
	// HTTPClient is the shared outbound client. Timeouts are applied per
	// request through contexts, not here, because streaming responses can
	// legitimately stay open for minutes.
	HTTPClient *http.Client
)

// Init builds the shared outbound HTTP client. Retries on 429/5xx happen at
// the transport level with exponential backoff and ±25% jitter, capped by
// RETRY_TIMES. A response whose headers have already been returned to the
// caller is never retried, so streams are never replayed mid-flight.
func Init() {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	HTTPClient = &http.Client{
		Transport: &retryTransport{
			inner:      transport,
			maxRetries: config.RetryTimes,
			baseDelay:  500 * time.Millisecond,
		},
	}
}

// CloseIdleConnections tears down the pooled connections during shutdown.
func CloseIdleConnections() {
	if HTTPClient != nil {
		HTTPClient.CloseIdleConnections()
	}
}

type retryTransport struct {
	inner      http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		// The request body must be rewindable to try again.
		if req.GetBody == nil && req.Body != nil {
			return resp, err
		}
		if err == nil {
			resp.Body.Close()
		}

		delay := jitter(t.baseDelay << attempt)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		logger.Logger.Warn("retrying upstream request",
			zap.String("url", req.URL.Path),
			zap.Int("attempt", attempt+1))

		retryReq := req.Clone(req.Context())
		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, berr
			}
			retryReq.Body = body
		}
		resp, err = t.inner.RoundTrip(retryReq)
	}
	return resp, err
}

// retryableStatus reports whether the upstream status warrants another
// attempt. Non-429 4xx responses are final.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// jitter spreads d by ±25%.
func jitter(d time.Duration) time.Duration {
	f := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * f)
}
