package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 销售结果标签
const (
	OutcomeCommitted         = "committed"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomePriceMismatch     = "price_mismatch"
	OutcomeNotFound          = "not_found"
	OutcomeError             = "error"
)

// Metrics Prometheus 指标集合，使用独立 registry
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SalesTotal       *prometheus.CounterVec
	SaleAmount       prometheus.Histogram
	LowStockEvents   prometheus.Counter
	CascadeRetired   *prometheus.CounterVec
	AuthAttemptTotal *prometheus.CounterVec
}

// New 创建并注册全部指标
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		SalesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sales_total",
				Help:      "Sale attempts by outcome",
			},
			[]string{"outcome"},
		),
		SaleAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sale_amount",
				Help:      "Total amount of committed sales",
				Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		),
		LowStockEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "low_stock_events_total",
				Help:      "Parts that reached their low stock threshold after a sale",
			},
		),
		CascadeRetired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cascade_retired_total",
				Help:      "Records retired by soft-delete cascades",
			},
			[]string{"kind"},
		),
		AuthAttemptTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
	}
}

// Handler /metrics 输出
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 底层 registry，测试中用于读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSale 记录一次销售尝试，m 为 nil 时忽略
func (m *Metrics) RecordSale(outcome string, amount float64) {
	if m == nil {
		return
	}
	m.SalesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCommitted {
		m.SaleAmount.Observe(amount)
	}
}

// RecordLowStock 低库存事件
func (m *Metrics) RecordLowStock(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LowStockEvents.Add(float64(n))
}

// RecordCascade 级联停用数量
func (m *Metrics) RecordCascade(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.CascadeRetired.WithLabelValues(kind).Add(float64(n))
}

// RecordAuth 登录结果
func (m *Metrics) RecordAuth(result string) {
	if m == nil {
		return
	}
	m.AuthAttemptTotal.WithLabelValues(result).Inc()
}
