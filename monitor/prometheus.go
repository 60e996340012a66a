package monitor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bedrock_relay",
			Name:      "relay_requests_total",
			Help:      "Relayed requests by route, stream mode and HTTP status.",
		},
		[]string{"route", "stream", "status"},
	)

	relayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bedrock_relay",
			Name:      "relay_request_duration_seconds",
			Help:      "End-to-end relay latency, streamed body included.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"route", "stream"},
	)
)

// RecordRelayRequest updates the relay counters for one finished request.
func RecordRelayRequest(route string, stream bool, status int, elapsed time.Duration) {
	streamLabel := strconv.FormatBool(stream)
	relayRequestsTotal.WithLabelValues(route, streamLabel, strconv.Itoa(status)).Inc()
	relayRequestDuration.WithLabelValues(route, streamLabel).Observe(elapsed.Seconds())
}
