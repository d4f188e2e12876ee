package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hashdragon"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	codecOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Record encode and decode operations.",
		},
		[]string{"op", "event", "success"},
	)
	lookupRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "requests_total",
			Help:      "Transaction lookups against the REST API.",
		},
		[]string{"status", "success"},
	)
	lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "request_duration_seconds",
			Help:      "Transaction lookup duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status", "success"},
	)
	assembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assemble",
			Name:      "transactions_total",
			Help:      "Assembled event transactions.",
		},
		[]string{"event", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOps, lookupRequests, lookupDuration, assembled)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one encode or decode. event is empty when the command
// could not be determined.
func RecordCodec(op, event string, success bool) {
	RegisterMetrics()
	if event == "" {
		event = "unknown"
	}
	codecOps.WithLabelValues(op, event, strconv.FormatBool(success)).Inc()
}

// RecordLookup observes one REST lookup. status is 0 when no response arrived.
func RecordLookup(status int, success bool, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	successLabel := strconv.FormatBool(success)
	lookupRequests.WithLabelValues(statusLabel, successLabel).Inc()
	lookupDuration.WithLabelValues(statusLabel, successLabel).Observe(duration.Seconds())
}

func RecordAssemble(event string, success bool) {
	RegisterMetrics()
	assembled.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}
