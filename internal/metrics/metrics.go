// Package metrics owns the Prometheus collectors shared by the scraper and
// the result server.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	httpRequestsCounter    *prometheus.CounterVec
	httpDurationMetric     *prometheus.HistogramVec
	classifyDurationMetric prometheus.Histogram
	scrapedMatchesCounter  *prometheus.CounterVec
	trainedLabelsGauge     prometheus.Gauge
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		httpRequestsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dpipe_http_requests_total",
				Help: "Total number of dashboard HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		)

		httpDurationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dpipe_http_request_duration_seconds",
				Help:    "Duration of dashboard HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		classifyDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dpipe_classify_duration_seconds",
				Help:    "Latency of single-message classification in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		scrapedMatchesCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dpipe_scraped_matches_total",
				Help: "Total number of scraped matches by outcome.",
			},
			[]string{"outcome"},
		)

		trainedLabelsGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dpipe_model_labels",
				Help: "Number of category labels in the loaded model.",
			},
		)

		prometheus.MustRegister(
			httpRequestsCounter,
			httpDurationMetric,
			classifyDurationMetric,
			scrapedMatchesCounter,
			trainedLabelsGauge,
		)
	})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route string, status int, elapsed time.Duration) {
	Init()
	httpRequestsCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDurationMetric.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveClassify records the latency of one pipeline prediction.
func ObserveClassify(elapsed time.Duration) {
	Init()
	classifyDurationMetric.Observe(elapsed.Seconds())
}

// ObserveScrapedMatch counts one processed match. outcome is "ok", "skipped"
// or a failure reason.
func ObserveScrapedMatch(outcome string) {
	Init()
	scrapedMatchesCounter.WithLabelValues(outcome).Inc()
}

// SetModelLabels publishes the label count of the loaded model.
func SetModelLabels(n int) {
	Init()
	trainedLabelsGauge.Set(float64(n))
}
