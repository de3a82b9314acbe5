package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics gom toàn bộ collectors của service; tạo một lần trong container
type Metrics struct {
	registry *prometheus.Registry

	callbacks   *prometheus.CounterVec
	paymentURLs *prometheus.CounterVec
	queryDR     *prometheus.CounterVec
	expired     prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vnpay_callbacks_total",
			Help: "VNPay callbacks handled, by source (return, ipn, reconcile) and outcome.",
		}, []string{"source", "outcome"}),
		paymentURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vnpay_payment_urls_total",
			Help: "Payment URL creation requests by result.",
		}, []string{"result"}),
		queryDR: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vnpay_querydr_total",
			Help: "querydr calls made by the reconciler, by result.",
		}, []string{"result"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_attempts_expired_total",
			Help: "Payment attempts moved to expired by the worker.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.callbacks, m.paymentURLs, m.queryDR, m.expired,
		m.httpRequests, m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) CallbackHandled(source, outcome string) {
	m.callbacks.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) PaymentURLCreated(result string) {
	m.paymentURLs.WithLabelValues(result).Inc()
}

func (m *Metrics) QueryDR(result string) {
	m.queryDR.WithLabelValues(result).Inc()
}

func (m *Metrics) AttemptsExpired(n int) {
	m.expired.Add(float64(n))
}

// Registry exposes the underlying registry (tests read counters from it)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler trả về /metrics endpoint cho gin
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware đếm request theo route template (c.FullPath) để tránh label cardinality theo id
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
