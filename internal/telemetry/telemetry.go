// Package telemetry exposes prometheus metrics for analyses, stages,
// advisory cache use and uploads.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "critic"

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "stage",
		Name:      "duration_seconds",
		Help:      "Time spent in each review stage",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
	}, []string{"stage", "status"})

	stageResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stage",
		Name:      "results_total",
		Help:      "Stage results by status",
	}, []string{"stage", "status"})

	analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed analyses by terminal state",
	}, []string{"outcome"})

	advisoryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "advisory",
		Name:      "cache_total",
		Help:      "Advisory cache lookups",
	}, []string{"result"}) // "hit" or "miss"

	uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "uploads_total",
		Help:      "Upload requests by response code",
	}, []string{"code"})
)

// ObserveStage records one stage result.
func ObserveStage(stage, status string, d time.Duration) {
	stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
	stageResults.WithLabelValues(stage, status).Inc()
}

// ObserveAnalysis records the terminal state of one analysis.
func ObserveAnalysis(outcome string) {
	analyses.WithLabelValues(outcome).Inc()
}

// ObserveAdvisoryCache records an advisory cache lookup.
func ObserveAdvisoryCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	advisoryCache.WithLabelValues(result).Inc()
}

// ObserveUpload records the response code of one upload.
func ObserveUpload(code int) {
	uploads.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
