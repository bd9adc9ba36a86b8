// Package middleware - Prometheus metrics middleware.
//
// Собирает метрики HTTP запросов и бизнес-метрики переводов
// для мониторинга через Prometheus + Grafana.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================
// HTTP METRICS
// ============================================

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "walletd",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletd",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		},
		[]string{"method", "path"},
	)
)

// ============================================
// BUSINESS METRICS
// ============================================

var (
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "transfers",
			Name:      "total",
			Help:      "Total number of transfer attempts by type, asset and outcome",
		},
		[]string{"type", "asset", "status"},
	)

	transferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletd",
			Subsystem: "transfers",
			Name:      "amount",
			Help:      "Transfer amounts by type and asset",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		},
		[]string{"type", "asset"},
	)

	transfersReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "transfers",
			Name:      "replayed_total",
			Help:      "Total number of idempotent replays served from cache or ledger",
		},
	)

	transfersContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "transfers",
			Name:      "contention_total",
			Help:      "Total number of transfers rejected after exhausting lock retries",
		},
	)
)

var dbConnections = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "walletd",
		Subsystem: "db",
		Name:      "pool_connections",
		Help:      "PostgreSQL pool connections by state",
	},
	[]string{"state"},
)

// UpdateDBConnections обновляет gauge состояния пула соединений.
func UpdateDBConnections(idle, acquired, max int32) {
	dbConnections.WithLabelValues("idle").Set(float64(idle))
	dbConnections.WithLabelValues("acquired").Set(float64(acquired))
	dbConnections.WithLabelValues("max").Set(float64(max))
}

// RecordTransfer фиксирует результат перевода в метриках.
//
// status: "success" | "failed"
func RecordTransfer(txType, asset, status string, amount float64) {
	transfersTotal.WithLabelValues(txType, asset, status).Inc()
	if status == "success" {
		transferAmount.WithLabelValues(txType, asset).Observe(amount)
	}
}

// RecordReplay фиксирует idempotent replay.
func RecordReplay() {
	transfersReplayed.Inc()
}

// RecordContention фиксирует отказ из-за lock contention.
func RecordContention() {
	transfersContention.Inc()
}

// Metrics middleware собирает HTTP метрики для каждого запроса.
//
// Path нормализуется через FullPath() чтобы избежать
// cardinality explosion от path-параметров (/users/123 -> /users/:id).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		httpRequestsInFlight.Inc()
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		httpRequestsInFlight.Dec()
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(c.Writer.Size()))
	}
}
