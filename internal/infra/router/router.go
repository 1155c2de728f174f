// Package router owns the navigation state of one MCP session and dispatches tool
// calls to the accounting toolsets.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/accounting"
	"xeromcp/internal/infra/telemetry"
)

// ChangeFunc observes the visible toolset after every navigation transition.
type ChangeFunc func(current domain.Domain, tools []*mcp.Tool)

type Options struct {
	Toolsets  map[domain.Domain]accounting.Toolset
	Clients   domain.ClientSource
	Logger    *zap.Logger
	Metrics   domain.Metrics
	SessionID string
}

// Router is the navigation state machine. The state is ROOT (DomainNone) or one
// active domain, and the visible toolset is a pure function of it.
type Router struct {
	toolsets map[domain.Domain]accounting.Toolset
	clients  domain.ClientSource
	logger   *zap.Logger
	metrics  domain.Metrics

	navigateTool *mcp.Tool
	backTool     *mcp.Tool

	// transition serialises state changes with their change notification.
	transition sync.Mutex
	mu         sync.RWMutex
	current    domain.Domain
	onChange   ChangeFunc
}

// New fails unless every navigable domain has a toolset with at least one action.
func New(opts Options) (*Router, error) {
	if err := validateToolsets(opts.Toolsets); err != nil {
		return nil, err
	}
	if opts.Clients == nil {
		return nil, domain.E(domain.CodeInvalidArgument, "router.new", "client source is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("router")
	if opts.SessionID != "" {
		logger = logger.With(telemetry.SessionIDField(opts.SessionID))
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Router{
		toolsets:     opts.Toolsets,
		clients:      opts.Clients,
		logger:       logger,
		metrics:      metrics,
		navigateTool: NavigateTool(),
		backTool:     BackTool(),
		current:      domain.DomainNone,
	}, nil
}

func validateToolsets(toolsets map[domain.Domain]accounting.Toolset) error {
	var missing []string
	for _, d := range domain.AllDomains() {
		toolset, ok := toolsets[d]
		if !ok || len(toolset.Actions) == 0 {
			missing = append(missing, string(d))
			continue
		}
		if toolset.Domain != d {
			return domain.E(domain.CodeInvalidArgument, "router.new",
				fmt.Sprintf("toolset registered under %s declares domain %s", d, toolset.Domain), domain.ErrIncompleteToolsets)
		}
		for _, action := range toolset.Actions {
			if action.Name == "" || action.Handler == nil || action.InputSchema == nil {
				return domain.E(domain.CodeInvalidArgument, "router.new",
					fmt.Sprintf("toolset %s has an incomplete action %q", d, action.Name), domain.ErrIncompleteToolsets)
			}
		}
	}
	if len(missing) > 0 {
		return domain.E(domain.CodeInvalidArgument, "router.new",
			"no toolset for "+strings.Join(missing, ", "), domain.ErrIncompleteToolsets)
	}
	for d := range toolsets {
		if !d.Valid() {
			return domain.E(domain.CodeInvalidArgument, "router.new",
				fmt.Sprintf("toolset registered for unknown domain %q", d), domain.ErrIncompleteToolsets)
		}
	}
	return nil
}

// OnChange replaces the transition observer.
func (r *Router) OnChange(fn ChangeFunc) {
	r.transition.Lock()
	defer r.transition.Unlock()
	r.onChange = fn
}

func (r *Router) Current() domain.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// ListTools projects the current state: only navigate at ROOT, otherwise back plus
// every tool of the active domain.
func (r *Router) ListTools() []*mcp.Tool {
	return r.toolsFor(r.Current())
}

func (r *Router) toolsFor(d domain.Domain) []*mcp.Tool {
	if d == domain.DomainNone {
		return []*mcp.Tool{r.navigateTool}
	}
	tools := []*mcp.Tool{r.backTool}
	return append(tools, r.toolsets[d].Tools()...)
}

// Navigate enters d. An unknown identifier leaves the state unchanged.
func (r *Router) Navigate(ctx context.Context, target string) (string, error) {
	d, ok := domain.ParseDomain(target)
	if !ok {
		return "", domain.E(domain.CodeInvalidArgument, "router.navigate",
			fmt.Sprintf("unknown domain %q; choose one of %s", target, strings.Join(domain.DomainNames(), ", ")),
			domain.ErrUnknownDomain)
	}
	r.transitionTo(ctx, d, telemetry.EventNavigate)

	toolset := r.toolsets[d]
	return fmt.Sprintf("Navigated to %s (%s). Available tools: %s. Call %s to return to domain selection.",
		d, toolset.Summary, strings.Join(toolset.ToolNames(), ", "), domain.BackTool), nil
}

// Back returns to ROOT from any state.
func (r *Router) Back(ctx context.Context) string {
	r.transitionTo(ctx, domain.DomainNone, telemetry.EventBack)
	return r.NavigationPrompt()
}

// NavigationPrompt describes the domains reachable from ROOT.
func (r *Router) NavigationPrompt() string {
	var b strings.Builder
	b.WriteString("Choose an accounting area with ")
	b.WriteString(domain.NavigateTool)
	b.WriteString(":")
	for _, d := range domain.AllDomains() {
		b.WriteString("\n- ")
		b.WriteString(string(d))
		if summary := r.toolsets[d].Summary; summary != "" {
			b.WriteString(": ")
			b.WriteString(summary)
		}
	}
	return b.String()
}

func (r *Router) transitionTo(ctx context.Context, next domain.Domain, event string) {
	r.transition.Lock()
	defer r.transition.Unlock()

	r.mu.Lock()
	prev := r.current
	r.current = next
	r.mu.Unlock()

	r.metrics.ObserveNavigation(prev, next)
	telemetry.LoggerWithRequest(ctx, r.logger).Info("navigation",
		telemetry.EventField(event),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
	if r.onChange != nil {
		r.onChange(next, r.toolsFor(next))
	}
}

// NavigateTool describes xero_navigate.
func NavigateTool() *mcp.Tool {
	domains := make([]any, 0, len(domain.AllDomains()))
	for _, name := range domain.DomainNames() {
		domains = append(domains, name)
	}
	return &mcp.Tool{
		Name:        domain.NavigateTool,
		Description: "Open one accounting area to reveal its tools: " + strings.Join(domain.DomainNames(), ", ") + ".",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"domain": {Type: "string", Description: "Accounting area to open", Enum: domains},
			},
			Required: []string{"domain"},
		},
	}
}

// BackTool describes xero_back.
func BackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        domain.BackTool,
		Description: "Leave the current accounting area and return to domain selection.",
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
	}
}
