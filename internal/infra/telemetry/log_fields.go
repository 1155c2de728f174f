package telemetry

import (
	"time"

	"go.uber.org/zap"

	"xeromcp/internal/domain"
)

const (
	FieldEvent      = "event"
	FieldTool       = "tool"
	FieldDomain     = "domain"
	FieldSessionID  = "session_id"
	FieldAuthMode   = "auth_mode"
	FieldTransport  = "transport"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventToolCall       = "tool_call"
	EventToolError      = "tool_error"
	EventNavigate       = "navigate"
	EventBack           = "back"
	EventClientBuilt    = "client_built"
	EventClientReset    = "client_reset"
	EventAuthRejected   = "auth_rejected"
	EventSessionOpened  = "session_opened"
	EventSessionClosed  = "session_closed"
	EventCredentialsSet = "credentials_reloaded"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func DomainField(d domain.Domain) zap.Field {
	return zap.String(FieldDomain, d.String())
}

func SessionIDField(id string) zap.Field {
	return zap.String(FieldSessionID, id)
}

func AuthModeField(mode domain.AuthMode) zap.Field {
	return zap.String(FieldAuthMode, string(mode))
}

func TransportField(kind domain.TransportKind) zap.Field {
	return zap.String(FieldTransport, string(kind))
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
