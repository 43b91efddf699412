// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by route pattern, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelf_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shelf_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// AuthRejections counts requests refused by the validator, by reason.
	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelf_auth_rejections_total",
		Help: "Requests rejected during credential validation",
	}, []string{"reason"})

	FirstReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelf_first_reads_total",
		Help: "First-read events that advanced a book's read counter",
	})

	ReviewsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelf_reviews_submitted_total",
		Help: "Review submissions by result",
	}, []string{"result"})

	// CompanionReplies counts AI companion replies by outcome: generated, waiting, fallback.
	CompanionReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelf_companion_replies_total",
		Help: "AI reading companion replies by outcome",
	}, []string{"outcome"})

	CompanionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shelf_companion_generation_seconds",
		Help:    "Latency of upstream generation calls",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
