// Package metrics provides Prometheus metrics for the VISCA session engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "viscago"

// Request outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeDevice    = "device_error"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeTransport = "transport"
	OutcomeClosed    = "closed"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "requests_total",
		Help:      "Resolved requests by camera, kind and outcome",
	}, []string{"camera", "kind", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "request_duration_seconds",
		Help:      "Time from transmission to resolution",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	socketsInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "sockets_in_use",
		Help:      "Command sockets currently reserved per camera",
	}, []string{"camera"})

	inquiryRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "inquiry_retries_total",
		Help:      "Inquiries re-issued after a timeout",
	}, []string{"camera"})

	anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "anomalies_total",
		Help:      "Discarded or malformed replies by reason",
	}, []string{"reason"})

	cameras = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "cameras",
		Help:      "Registered cameras",
	})

	transportBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "bytes_total",
		Help:      "Bytes moved over the transport",
	}, []string{"direction"})
)

// RecordRequest counts a resolved request and observes its latency.
func RecordRequest(camera int, kind, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(strconv.Itoa(camera), kind, outcome).Inc()
	requestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetSocketsInUse sets the reserved socket count for a camera.
func SetSocketsInUse(camera, n int) {
	socketsInUse.WithLabelValues(strconv.Itoa(camera)).Set(float64(n))
}

// RecordRetry counts an inquiry retry.
func RecordRetry(camera int) {
	inquiryRetries.WithLabelValues(strconv.Itoa(camera)).Inc()
}

// RecordAnomaly counts a discarded reply or framing error.
func RecordAnomaly(reason string) {
	anomaliesTotal.WithLabelValues(reason).Inc()
}

// SetCameras sets the registered camera count.
func SetCameras(n int) {
	cameras.Set(float64(n))
}

// AddBytesRead counts bytes read from the transport.
func AddBytesRead(n int) {
	transportBytes.WithLabelValues("read").Add(float64(n))
}

// AddBytesWritten counts bytes written to the transport.
func AddBytesWritten(n int) {
	transportBytes.WithLabelValues("write").Add(float64(n))
}
