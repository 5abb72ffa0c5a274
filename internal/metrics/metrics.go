// Package metrics содержит метрики Prometheus сервиса kiosk.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// FeedLoadsTotal считает завершенные загрузки лент по исходу и классу ошибки.
	FeedLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "feed_loads_total",
			Help:      "Total number of feed loads by outcome",
		},
		[]string{"status", "class"},
	)

	// FeedLoadDuration измеряет длительность загрузки ленты.
	FeedLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kiosk",
			Name:      "feed_load_duration_seconds",
			Help:      "Duration of feed loads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	ChannelsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "feed_channels_loaded",
			Help:      "Total number of channels delivered by successful loads",
		},
	)

	ItemsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "feed_items_loaded",
			Help:      "Total number of items delivered by successful loads",
		},
	)

	// HTTPRequestsTotal считает запросы к API по пути и коду ответа.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"path", "code"},
	)
)

// RecordLoadSuccess фиксирует успешную загрузку с числом каналов и записей.
func RecordLoadSuccess(channels, items int, duration float64) {
	FeedLoadsTotal.WithLabelValues(StatusSuccess, "").Inc()
	FeedLoadDuration.WithLabelValues(StatusSuccess).Observe(duration)
	ChannelsLoaded.Add(float64(channels))
	ItemsLoaded.Add(float64(items))
}

// RecordLoadFailure фиксирует неудачную загрузку с классом ошибки.
func RecordLoadFailure(class string, duration float64) {
	FeedLoadsTotal.WithLabelValues(StatusFailure, class).Inc()
	FeedLoadDuration.WithLabelValues(StatusFailure).Observe(duration)
}

func RecordHTTPRequest(path string, code int) {
	HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
