package telemetry

import (
	"xeromcp/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveToolCall(_ domain.ToolCallMetric) {}

func (n *NoopMetrics) ObserveNavigation(_, _ domain.Domain) {}

func (n *NoopMetrics) ObserveAPIRequest(_ domain.APIRequestMetric) {}

func (n *NoopMetrics) ObserveAuthFailure(_ string) {}

func (n *NoopMetrics) ObserveClientBuild(_ domain.AuthMode) {}

func (n *NoopMetrics) SetActiveSessions(_ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
