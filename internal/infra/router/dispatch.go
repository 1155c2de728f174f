package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/telemetry"
)

type navigateArgs struct {
	Domain string `json:"domain"`
}

// Dispatch resolves a tool name and runs it. It never returns a Go error: every
// failure becomes an error-flagged result. Dispatch does not consult the current
// navigation state, and a failed call never changes it.
func (r *Router) Dispatch(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	start := time.Now()
	owner, payload, err := r.dispatch(ctx, name, args)
	r.observe(ctx, name, owner, time.Since(start), err)
	if err != nil {
		return ErrorResult(err)
	}
	return successResult(payload)
}

func (r *Router) dispatch(ctx context.Context, name string, args json.RawMessage) (domain.Domain, any, error) {
	switch name {
	case domain.NavigateTool:
		var input navigateArgs
		if len(bytes.TrimSpace(args)) > 0 {
			if err := json.Unmarshal(args, &input); err != nil {
				return domain.DomainNone, nil, domain.InvalidArgument("router.navigate", "arguments must be an object with a domain field")
			}
		}
		if input.Domain == "" {
			return domain.DomainNone, nil, domain.InvalidArgument("router.navigate", "domain is required")
		}
		text, err := r.Navigate(ctx, input.Domain)
		return domain.DomainNone, text, err
	case domain.BackTool:
		return domain.DomainNone, r.Back(ctx), nil
	}

	owner, action, ok := domain.DomainFromToolName(name)
	if !ok {
		return domain.DomainNone, nil, domain.E(domain.CodeNotFound, "router.dispatch",
			fmt.Sprintf("unknown tool %q", name), domain.ErrUnknownTool)
	}
	found, ok := r.toolsets[owner].Lookup(action)
	if !ok {
		return owner, nil, domain.E(domain.CodeNotFound, "router.dispatch",
			fmt.Sprintf("unknown tool %q", name), domain.ErrUnknownTool)
	}
	api, err := r.clients.Client(ctx)
	if err != nil {
		return owner, nil, err
	}
	result, err := found.Handler(ctx, api, args)
	return owner, result, err
}

func (r *Router) observe(ctx context.Context, name string, owner domain.Domain, duration time.Duration, err error) {
	status, reason := classifyCall(err)
	r.metrics.ObserveToolCall(domain.ToolCallMetric{
		Tool:     name,
		Domain:   owner,
		Status:   status,
		Reason:   reason,
		Duration: duration,
	})
	logger := telemetry.LoggerWithRequest(ctx, r.logger)
	fields := []zap.Field{
		telemetry.ToolField(name),
		telemetry.DomainField(owner),
		telemetry.DurationField(duration),
	}
	if err != nil {
		logger.Warn("tool call failed", append(fields,
			telemetry.EventField(telemetry.EventToolError),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)...)
		return
	}
	logger.Info("tool call", append(fields, telemetry.EventField(telemetry.EventToolCall))...)
}

// ErrorResult renders err as an error-flagged tool result.
func ErrorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
	}
}

func successResult(payload any) *mcp.CallToolResult {
	if text, ok := payload.(string); ok {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
	}
	if payload == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "Done. The API returned no content."}}}
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Errorf("encode result: %w", err))
	}
	result := &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}}}
	if object, ok := payload.(map[string]any); ok {
		result.StructuredContent = object
	}
	return result
}
