package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the assistant service.
type Metrics struct {
	registry *prometheus.Registry

	exchangesTotal   *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
	toolCallsTotal   *prometheus.CounterVec
	tokensTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. liveSessions reports the
// current session count for the gauge; pass nil to skip it.
func NewMetrics(liveSessions func() float64) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cxassist_exchanges_total",
			Help: "Completed chat exchanges by terminal state.",
		}, []string{"state"}),
		exchangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cxassist_exchange_duration_seconds",
			Help:    "Wall-clock duration of chat exchanges.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cxassist_tool_calls_total",
			Help: "Tool invocations by tool and outcome.",
		}, []string{"tool", "status"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cxassist_tokens_total",
			Help: "Completion tokens consumed by direction.",
		}, []string{"direction"}),
	}

	reg.MustRegister(m.exchangesTotal, m.exchangeDuration, m.toolCallsTotal, m.tokensTotal)

	if liveSessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cxassist_live_sessions",
			Help: "Sessions currently held in memory.",
		}, liveSessions))
	}

	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveExchange records one finished exchange.
func (m *Metrics) ObserveExchange(state string, duration time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.exchangesTotal.WithLabelValues(state).Inc()
	m.exchangeDuration.Observe(duration.Seconds())
	m.tokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	m.tokensTotal.WithLabelValues("output").Add(float64(outputTokens))
}

// ObserveToolCall records one tool invocation.
func (m *Metrics) ObserveToolCall(tool string, isError bool) {
	if m == nil {
		return
	}
	status := "ok"
	if isError {
		status = "error"
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
}
