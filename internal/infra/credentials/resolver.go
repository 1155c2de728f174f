package credentials

import (
	"context"
	"sync"

	"xeromcp/internal/domain"
)

// Resolver yields the credential pair to use for one tool dispatch.
type Resolver interface {
	Resolve(ctx context.Context) (domain.Credentials, error)
}

// NewResolver selects the resolver for the configured mode. An empty mode is direct.
func NewResolver(mode domain.AuthMode, static domain.Credentials) (Resolver, error) {
	switch mode {
	case "", domain.AuthModeDirect:
		return NewDirectResolver(static), nil
	case domain.AuthModeDelegated:
		return DelegatedResolver{}, nil
	default:
		return nil, domain.E(domain.CodeInvalidArgument, "credentials.resolver", "unknown auth mode "+string(mode), nil)
	}
}

// DirectResolver serves credentials from process configuration. The pair can be
// swapped when the credentials file changes.
type DirectResolver struct {
	mu    sync.RWMutex
	creds domain.Credentials
}

func NewDirectResolver(creds domain.Credentials) *DirectResolver {
	return &DirectResolver{creds: creds.Normalize()}
}

// Resolve fails at dispatch time, not at start, when either field is missing.
func (r *DirectResolver) Resolve(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}
	creds := r.Current()
	if err := creds.Validate(); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func (r *DirectResolver) Current() domain.Credentials {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creds
}

// Set replaces the pair and reports whether it changed.
func (r *DirectResolver) Set(creds domain.Credentials) bool {
	creds = creds.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.creds == creds {
		return false
	}
	r.creds = creds
	return true
}

// DelegatedResolver reads the pair the transport attached to the request context.
type DelegatedResolver struct{}

func (DelegatedResolver) Resolve(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}
	creds, ok := domain.CredentialsFromContext(ctx)
	if !ok {
		return domain.Credentials{}, domain.E(domain.CodeUnauthenticated, "credentials.delegated",
			"no credentials on request", domain.ErrMissingCredentials)
	}
	if err := creds.Validate(); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

var (
	_ Resolver = (*DirectResolver)(nil)
	_ Resolver = DelegatedResolver{}
)
