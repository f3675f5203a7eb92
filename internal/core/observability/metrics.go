package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridform_submissions_total",
			Help: "Mesh request submissions by outcome.",
		},
		[]string{"outcome"},
	)

	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridform_validation_failures_total",
			Help: "Rejected submissions by error kind.",
		},
		[]string{"kind"},
	)

	externalProcessSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridform_external_process_seconds",
			Help:    "Wall time of generator, converter and viewer invocations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"tool", "result"},
	)

	draftStoreSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridform_draft_store_seconds",
			Help:    "Latency of draft store operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"backend", "op", "result"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		submissionsTotal,
		validationFailuresTotal,
		externalProcessSeconds,
		draftStoreSeconds,
	}
}

// Init registers the collectors with reg and turns recording on or off.
// Registering twice with the same registry is not an error.
func Init(reg prometheus.Registerer, on bool) error {
	enabled.Store(on)
	if reg == nil || !on {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func Enabled() bool { return enabled.Load() }

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !Enabled() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveSubmission counts one submit outcome: ok, invalid, io_failure or
// process_failure. kind is the error kind for invalid submissions.
func ObserveSubmission(outcome, kind string) {
	if !Enabled() {
		return
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
	if kind != "" {
		validationFailuresTotal.WithLabelValues(kind).Inc()
	}
}

func ObserveExternalProcess(tool string, err error, durationSeconds float64) {
	if !Enabled() {
		return
	}
	externalProcessSeconds.WithLabelValues(tool, result(err)).Observe(durationSeconds)
}

func ObserveStoreOp(backend, op string, err error, durationSeconds float64) {
	if !Enabled() {
		return
	}
	draftStoreSeconds.WithLabelValues(backend, op, result(err)).Observe(durationSeconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
