package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"xeromcp/internal/domain"
)

type PrometheusMetrics struct {
	toolCallDuration   *prometheus.HistogramVec
	navigations        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	authFailures       *prometheus.CounterVec
	clientBuilds       *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xero_mcp_tool_call_duration_seconds",
				Help:    "Duration of dispatched tool calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool", "domain", "status", "reason"},
		),
		navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xero_mcp_navigations_total",
				Help: "Total number of navigation state transitions",
			},
			[]string{"from", "to"},
		),
		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xero_mcp_api_request_duration_seconds",
				Help:    "Duration of accounting API requests in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "status"},
		),
		authFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xero_mcp_auth_failures_total",
				Help: "Total number of rejected requests missing delegated credentials",
			},
			[]string{"reason"},
		),
		clientBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xero_mcp_client_builds_total",
				Help: "Total number of API client constructions",
			},
			[]string{"auth_mode"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "xero_mcp_active_sessions",
				Help: "Current number of live MCP sessions",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveToolCall(metric domain.ToolCallMetric) {
	p.toolCallDuration.WithLabelValues(
		metric.Tool,
		metric.Domain.String(),
		string(metric.Status),
		string(metric.Reason),
	).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveNavigation(from, to domain.Domain) {
	p.navigations.WithLabelValues(from.String(), to.String()).Inc()
}

func (p *PrometheusMetrics) ObserveAPIRequest(metric domain.APIRequestMetric) {
	status := "transport_error"
	if metric.StatusCode > 0 {
		status = strconv.Itoa(metric.StatusCode)
	}
	p.apiRequestDuration.WithLabelValues(metric.Method, status).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveAuthFailure(reason string) {
	p.authFailures.WithLabelValues(reason).Inc()
}

func (p *PrometheusMetrics) ObserveClientBuild(mode domain.AuthMode) {
	p.clientBuilds.WithLabelValues(string(mode)).Inc()
}

func (p *PrometheusMetrics) SetActiveSessions(count int) {
	p.activeSessions.Set(float64(count))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
