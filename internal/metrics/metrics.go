// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatReplies counts pipeline replies by source tag.
	ChatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "chat_replies_total",
		Help:      "Chat replies by the path that produced them.",
	}, []string{"source"})

	// BackendCalls counts generative/extraction backend calls by outcome.
	BackendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "backend_calls_total",
		Help:      "External backend calls by backend and outcome.",
	}, []string{"backend", "outcome"})

	// BackendLatency observes backend call duration.
	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wellness",
		Name:      "backend_call_seconds",
		Help:      "External backend call latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 6, 10},
	}, []string{"backend"})

	// TranslationFallbacks counts detect/translate calls that fell back.
	TranslationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "translation_fallbacks_total",
		Help:      "Translation bridge calls that returned the fallback value.",
	}, []string{"op"})

	// RecorderTasks counts recorder tasks by kind and outcome.
	RecorderTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "recorder_tasks_total",
		Help:      "Background persistence tasks by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RealtimeConnections tracks open websocket connections.
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness",
		Name:      "realtime_connections",
		Help:      "Open websocket connections.",
	})
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
	OutcomeDropped = "dropped"
)
