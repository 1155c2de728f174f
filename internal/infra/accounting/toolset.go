// Package accounting holds the static tool descriptors for each accounting domain
// and the handlers that turn tool arguments into API calls.
package accounting

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"xeromcp/internal/domain"
)

// Handler executes one action against the accounting API with raw JSON arguments.
type Handler func(ctx context.Context, api domain.AccountingAPI, args json.RawMessage) (any, error)

// Action is one tool within a domain, named xero_<domain>_<action>.
type Action struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler
}

// Toolset is the closed set of actions exposed while a domain is active.
type Toolset struct {
	Domain  domain.Domain
	Summary string
	Actions []Action
}

// Tools returns fresh descriptors for every action in declaration order.
func (t Toolset) Tools() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(t.Actions))
	for _, action := range t.Actions {
		tools = append(tools, &mcp.Tool{
			Name:        t.Domain.ToolName(action.Name),
			Description: action.Description,
			InputSchema: action.InputSchema,
		})
	}
	return tools
}

// ToolNames lists the full tool identifiers of the domain.
func (t Toolset) ToolNames() []string {
	names := make([]string, 0, len(t.Actions))
	for _, action := range t.Actions {
		names = append(names, t.Domain.ToolName(action.Name))
	}
	return names
}

func (t Toolset) Lookup(action string) (Action, bool) {
	for _, candidate := range t.Actions {
		if candidate.Name == action {
			return candidate, true
		}
	}
	return Action{}, false
}

// Toolsets returns the toolset of every domain.
func Toolsets() map[domain.Domain]Toolset {
	return map[domain.Domain]Toolset{
		domain.DomainContacts: ContactsToolset(),
		domain.DomainInvoices: InvoicesToolset(),
		domain.DomainPayments: PaymentsToolset(),
		domain.DomainAccounts: AccountsToolset(),
		domain.DomainReports:  ReportsToolset(),
	}
}

// SortedToolNames flattens every toolset into a sorted name list.
func SortedToolNames(toolsets map[domain.Domain]Toolset) []string {
	var names []string
	for _, toolset := range toolsets {
		names = append(names, toolset.ToolNames()...)
	}
	sort.Strings(names)
	return names
}
