package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "taskpilot"
	subsystem = "chat_api"
)

// Metrics bundles the prometheus collectors for the chat service.
type Metrics struct {
	ChatRequestsTotal *prometheus.CounterVec
	ChatDuration      prometheus.Histogram
	ToolCallsTotal    *prometheus.CounterVec
	LLMCallsTotal     *prometheus.CounterVec
	LLMCallDuration   prometheus.Histogram
	CircuitState      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ChatRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"status"}),
		ChatDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_request_duration_seconds",
			Help:      "End to end chat request latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ToolCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool name and outcome.",
		}, []string{"tool", "status"}),
		LLMCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_calls_total",
			Help:      "Model invocations by outcome.",
		}, []string{"status"}),
		LLMCallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_call_duration_seconds",
			Help:      "Model invocation latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CircuitState: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "circuit_breaker_open",
			Help:      "1 when the model circuit breaker is open, 0 otherwise.",
		}),
	}
}

func (m *Metrics) ObserveChatRequest(duration time.Duration, status string) {
	m.ChatRequestsTotal.WithLabelValues(status).Inc()
	m.ChatDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveToolCall(tool string, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) ObserveLLMCall(duration time.Duration, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.LLMCallsTotal.WithLabelValues(status).Inc()
	m.LLMCallDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.CircuitState.Set(1)
		return
	}
	m.CircuitState.Set(0)
}
