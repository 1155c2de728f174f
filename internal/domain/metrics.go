package domain

import "time"

// CallStatus labels the outcome of a dispatched tool call.
type CallStatus string

const (
	CallStatusSuccess CallStatus = "success"
	CallStatusError   CallStatus = "error"
)

// ToolCallMetric captures one dispatch through the router.
type ToolCallMetric struct {
	Tool     string
	Domain   Domain
	Status   CallStatus
	Reason   ErrorCode
	Duration time.Duration
}

// APIRequestMetric captures one outbound call to the accounting API.
type APIRequestMetric struct {
	Method     string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Metrics records operational metrics for dispatch, navigation and remote calls.
type Metrics interface {
	ObserveToolCall(metric ToolCallMetric)
	ObserveNavigation(from, to Domain)
	ObserveAPIRequest(metric APIRequestMetric)
	ObserveAuthFailure(reason string)
	ObserveClientBuild(mode AuthMode)
	SetActiveSessions(count int)
}
