package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "status" label.
const (
	StatusSuccess           = "success"
	StatusInvalidInput      = "invalid_input"
	StatusTransportError    = "transport_error"
	StatusMalformedResponse = "malformed_response"
)

var (
	// Translation request metrics
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchxlate_translation_requests_total",
			Help: "Total number of translation requests by outcome",
		},
		[]string{"rpc", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchxlate_translation_request_duration_seconds",
			Help:    "Duration of translation requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"rpc", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchxlate_translation_request_size_bytes",
			Help:    "Size of the encoded batchexecute request body in bytes",
			Buckets: []float64{128, 512, 1024, 4096, 16384, 65536},
		},
		[]string{"rpc"},
	)

	translationSegments = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchxlate_translation_segments",
			Help:    "Number of segments returned per successful translation",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"rpc"},
	)

	// Decoder metrics
	decodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchxlate_decode_failures_total",
			Help: "Total number of malformed responses by failing decode step",
		},
		[]string{"rpc", "step"},
	)
)

// MetricsCollector records translation metrics for one RPC.
type MetricsCollector struct {
	rpc string
}

// NewMetricsCollector creates a collector labelled with rpc.
func NewMetricsCollector(rpc string) *MetricsCollector {
	return &MetricsCollector{rpc: rpc}
}

// RecordTranslationRequest records one finished request. requestSize is 0
// when the request was rejected before encoding.
func (mc *MetricsCollector) RecordTranslationRequest(duration time.Duration, status string, requestSize, segments int) {
	translationRequestsTotal.WithLabelValues(mc.rpc, status).Inc()
	translationRequestDuration.WithLabelValues(mc.rpc, status).Observe(duration.Seconds())
	if requestSize > 0 {
		translationRequestSize.WithLabelValues(mc.rpc).Observe(float64(requestSize))
	}
	if status == StatusSuccess {
		translationSegments.WithLabelValues(mc.rpc).Observe(float64(segments))
	}
}

// RecordDecodeFailure records a malformed response at step.
func (mc *MetricsCollector) RecordDecodeFailure(step string) {
	decodeFailuresTotal.WithLabelValues(mc.rpc, step).Inc()
}
