package domain

import (
	"fmt"
	"strings"
)

// AuthMode selects how credentials reach the API client. Chosen once at start.
type AuthMode string

const (
	// AuthModeDirect reads one credential pair from process configuration.
	AuthModeDirect AuthMode = "direct"
	// AuthModeDelegated takes a credential pair from headers on every HTTP request.
	AuthModeDelegated AuthMode = "delegated"
)

// ParseAuthMode accepts the canonical names plus the env/gateway aliases.
func ParseAuthMode(value string) (AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "direct", "env":
		return AuthModeDirect, nil
	case "delegated", "gateway":
		return AuthModeDelegated, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q: must be direct or delegated", value)
	}
}

// TransportKind selects the front-end channel.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
)

// ParseTransport normalizes a transport name.
func ParseTransport(value string) (TransportKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "stdio":
		return TransportStdio, nil
	case "http", "streamable-http", "streamable_http":
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("unknown transport %q: must be stdio or http", value)
	}
}
