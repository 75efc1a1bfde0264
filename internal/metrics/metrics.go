// Package metrics は Prometheus のメトリクスを定義します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "samaybihar"

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Metrics は HTTP と認証フローのメトリクスを保持します。nil でも安全に呼び出せます。
type Metrics struct {
	gatherer       prometheus.Gatherer
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	authAttempts   *prometheus.CounterVec
}

// New はメトリクスを reg に登録して返します。
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication attempts by flow and outcome",
		}, []string{"flow", "outcome"}),
	}
	reg.MustRegister(m.requestTotal, m.requestLatency, m.authAttempts)
	return m
}

// Middleware はリクエスト数とレイテンシを記録します。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		m.requestTotal.With(labels).Inc()
		m.requestLatency.With(labels).Observe(time.Since(start).Seconds())
	}
}

// ObserveAuth は認証フローの結果を記録します。
func (m *Metrics) ObserveAuth(flow, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.With(prometheus.Labels{"flow": flow, "outcome": outcome}).Inc()
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Status(http.StatusNotFound) }
	}
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
