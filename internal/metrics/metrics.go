package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "takeint",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "takeint",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "takeint",
		Name:      "live_sessions",
		Help:      "Number of voice sessions currently active on this instance",
	})

	finalizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "takeint",
		Name:      "finalizations_total",
		Help:      "Interview finalization attempts by outcome",
	}, []string{"outcome"}) // "completed", "duplicate", "failed"

	scoringLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "takeint",
		Name:      "scoring_duration_seconds",
		Help:      "Duration of transcript scoring calls in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
	})
)

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Middleware records request metrics with Prometheus labels.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			labels := prometheus.Labels{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": strconv.Itoa(rec.status),
			}
			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

// SessionStarted and SessionEnded track the live session gauge.
func SessionStarted() { liveSessions.Inc() }
func SessionEnded()   { liveSessions.Dec() }

// FinalizationRecorded counts a finalization attempt by outcome.
func FinalizationRecorded(outcome string) {
	finalizations.WithLabelValues(outcome).Inc()
}

// ObserveScoring records the duration of one scoring call.
func ObserveScoring(d time.Duration) {
	scoringLatency.Observe(d.Seconds())
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
