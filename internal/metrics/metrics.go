package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Bus metrics
	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kisan_chat_frames_received_total",
			Help: "Total inbound bus frames",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_chat_frames_dropped_total",
			Help: "Inbound bus frames discarded before reaching the transcript",
		},
		[]string{"reason"}, // "blank" or "malformed"
	)

	DuplicatesSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kisan_chat_duplicates_suppressed_total",
			Help: "Messages already present in the transcript",
		},
	)

	FramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_chat_frames_sent_total",
			Help: "Total outbound bus frames",
		},
		[]string{"kind"},
	)

	SendRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kisan_chat_send_rejected_total",
			Help: "Sends refused because the channel was not connected",
		},
	)

	OpenChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kisan_chat_open_channels",
			Help: "Conversation channels currently held",
		},
	)

	// REST metrics
	HistoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_chat_history_requests_total",
			Help: "History service requests",
		},
		[]string{"endpoint", "outcome"},
	)

	AssistantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_chat_assistant_requests_total",
			Help: "Assistant service requests",
		},
		[]string{"endpoint", "outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
