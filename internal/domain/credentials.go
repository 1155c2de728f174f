package domain

import (
	"context"
	"strings"
)

// Credentials is the bearer token and tenant pair attached to every remote call.
type Credentials struct {
	AccessToken string
	TenantID    string
}

// Normalize trims surrounding whitespace from both fields.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		AccessToken: strings.TrimSpace(c.AccessToken),
		TenantID:    strings.TrimSpace(c.TenantID),
	}
}

// Complete reports whether both fields are populated.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.AccessToken) != "" && strings.TrimSpace(c.TenantID) != ""
}

// Validate returns ErrMissingCredentials naming the absent fields.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.AccessToken) == "" {
		missing = append(missing, "access token")
	}
	if strings.TrimSpace(c.TenantID) == "" {
		missing = append(missing, "tenant id")
	}
	if len(missing) == 0 {
		return nil
	}
	return E(CodeUnauthenticated, "credentials.validate", "missing "+strings.Join(missing, " and "), ErrMissingCredentials)
}

type credentialsContextKey struct{}

// WithCredentials scopes a credential pair to a single request.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, credentialsContextKey{}, creds)
}

// CredentialsFromContext returns the request-scoped credential pair, if any.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	if ctx == nil {
		return Credentials{}, false
	}
	creds, ok := ctx.Value(credentialsContextKey{}).(Credentials)
	return creds, ok
}
