package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "risparmio",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})

	transactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "risparmio",
		Name:      "transactions_created_total",
		Help:      "Transactions accepted through the API.",
	})

	predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "risparmio",
		Name:      "predictions_total",
		Help:      "Savings prediction reports generated.",
	})

	predictionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risparmio",
		Name:      "prediction_failures_total",
		Help:      "Prediction requests rejected, by reason.",
	}, []string{"reason"})

	parseRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risparmio",
		Name:      "parse_requests_total",
		Help:      "Free-text parse attempts, by outcome.",
	}, []string{"outcome"})

	trendCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risparmio",
		Name:      "trend_cache_requests_total",
		Help:      "Spending-trend cache lookups, by result.",
	}, []string{"result"})
)
