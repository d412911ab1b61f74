package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ChatSessionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aichat_sessions_total",
		Help: "Number of finished chat sessions by outcome.",
	},
	[]string{"outcome"},
)

var ChatSessionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "aichat_session_duration_seconds",
		Help: "Time from send to finalization of a chat session.",
		Buckets: []float64{
			0.25,
			0.5,
			1,
			2,
			5,
			10,
			30,
			60,
			120,
		},
	},
	[]string{"outcome"},
)

var ChatSessionActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "aichat_session_active",
		Help: "1 while a chat session is in flight.",
	},
)

var StreamChunksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "aichat_stream_chunks_total",
		Help: "Number of decoded stream chunks.",
	},
)

var StreamDecodeFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "aichat_stream_decode_failures_total",
		Help: "Number of stream payloads that could not be decoded.",
	},
)

var ChatHttpStatusTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aichat_chat_http_status_total",
		Help: "Upstream HTTP status codes of chat requests.",
	},
	[]string{"code"},
)

var HeartbeatTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aichat_heartbeat_total",
		Help: "Number of heartbeat probes by result.",
	},
	[]string{"result"},
)

var HeartbeatDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "aichat_heartbeat_duration_seconds",
		Help:    "Heartbeat probe latency.",
		Buckets: prometheus.DefBuckets,
	},
)

var HeartbeatConnectionValid = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "aichat_heartbeat_connection_valid",
		Help: "1 when the last heartbeat reported a valid connection.",
	},
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aichat_http_requests_total",
		Help: "Number of requests to the status server.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "aichat_http_request_duration_seconds_histogram",
		Buckets: []float64{
			0.005,
			0.01,
			0.05,
			0.1,
			0.5,
			1,
		},
	},
	[]string{"path", "code", "method"},
)

func RegisterAllPrometheusApplicationMetrics() {
	prometheus.Register(TotalRequests)
	prometheus.Register(ChatSessionsTotal)
	prometheus.Register(ChatSessionDuration)
	prometheus.Register(ChatSessionActive)
	prometheus.Register(StreamChunksTotal)
	prometheus.Register(StreamDecodeFailuresTotal)
	prometheus.Register(ChatHttpStatusTotal)
	prometheus.Register(HeartbeatTotal)
	prometheus.Register(HeartbeatDuration)
	prometheus.Register(HeartbeatConnectionValid)
}
