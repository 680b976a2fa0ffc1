package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics collects Prometheus metrics for the POS backend.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesTotal      prometheus.Counter
	saleAmount      prometheus.Counter
	adjustments     *prometheus.CounterVec
	failures        *prometheus.CounterVec
	lowStockAlerts  prometheus.Counter
}

// NewMetrics initialises the registry with HTTP and domain metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_recorded_total",
		Help: "Committed sales.",
	})
	amount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sale_amount_total",
		Help: "Sum of total_amount over committed sales.",
	})
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_inventory_adjustments_total",
		Help: "Committed inventory adjustments by type.",
	}, []string{"type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_operation_failures_total",
		Help: "Failed core operations by operation and error kind.",
	}, []string{"op", "kind"})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_low_stock_alerts_total",
		Help: "Low-stock alerts raised by the worker.",
	})
	registry.MustRegister(requests, duration, sales, amount, adjustments, failures, lowStock)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		salesTotal:      sales,
		saleAmount:      amount,
		adjustments:     adjustments,
		failures:        failures,
		lowStockAlerts:  lowStock,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSale counts a committed sale.
func (m *Metrics) ObserveSale(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.salesTotal.Inc()
	m.saleAmount.Add(total.InexactFloat64())
}

// ObserveAdjustment counts a committed adjustment.
func (m *Metrics) ObserveAdjustment(adjustmentType string) {
	if m == nil {
		return
	}
	m.adjustments.WithLabelValues(adjustmentType).Inc()
}

// ObserveFailure counts a failed operation.
func (m *Metrics) ObserveFailure(op, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, kind).Inc()
}

// ObserveLowStockAlert counts an alert raised by the worker.
func (m *Metrics) ObserveLowStockAlert() {
	if m == nil {
		return
	}
	m.lowStockAlerts.Inc()
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
