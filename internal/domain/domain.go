package domain

import (
	"strings"
)

// Domain names a functional area of the accounting API that gates tool visibility.
type Domain string

const (
	// DomainNone is the root navigation state: no domain selected.
	DomainNone     Domain = ""
	DomainContacts Domain = "contacts"
	DomainInvoices Domain = "invoices"
	DomainPayments Domain = "payments"
	DomainAccounts Domain = "accounts"
	DomainReports  Domain = "reports"
)

// Tool names shared by every session.
const (
	ToolPrefix   = "xero_"
	NavigateTool = ToolPrefix + "navigate"
	BackTool     = ToolPrefix + "back"
)

var allDomains = []Domain{
	DomainContacts,
	DomainInvoices,
	DomainPayments,
	DomainAccounts,
	DomainReports,
}

// AllDomains returns the fixed, ordered set of navigable domains.
func AllDomains() []Domain {
	return append([]Domain(nil), allDomains...)
}

// DomainNames returns the domain identifiers as strings, in navigation order.
func DomainNames() []string {
	names := make([]string, 0, len(allDomains))
	for _, d := range allDomains {
		names = append(names, string(d))
	}
	return names
}

// ParseDomain maps an identifier to a known domain.
func ParseDomain(value string) (Domain, bool) {
	candidate := Domain(strings.ToLower(strings.TrimSpace(value)))
	for _, d := range allDomains {
		if d == candidate {
			return d, true
		}
	}
	return DomainNone, false
}

// Valid reports whether d is one of the navigable domains.
func (d Domain) Valid() bool {
	for _, known := range allDomains {
		if d == known {
			return true
		}
	}
	return false
}

func (d Domain) String() string {
	if d == DomainNone {
		return "none"
	}
	return string(d)
}

// ToolName builds the tool identifier for an action within d.
func (d Domain) ToolName(action string) string {
	return ToolPrefix + string(d) + "_" + action
}

// DomainFromToolName resolves the owning domain of a tool identifier by prefix.
// The returned action is the remainder after "xero_<domain>_".
func DomainFromToolName(name string) (Domain, string, bool) {
	if !strings.HasPrefix(name, ToolPrefix) {
		return DomainNone, "", false
	}
	rest := strings.TrimPrefix(name, ToolPrefix)
	for _, d := range allDomains {
		prefix := string(d) + "_"
		if strings.HasPrefix(rest, prefix) {
			return d, strings.TrimPrefix(rest, prefix), true
		}
	}
	return DomainNone, "", false
}
