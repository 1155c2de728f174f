package gateway

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/telemetry"
	"xeromcp/internal/infra/xero"
)

// ClientFactory builds an accounting API client bound to one credential pair.
type ClientFactory func(creds domain.Credentials) (domain.AccountingAPI, error)

// XeroClientFactory builds xero.Client instances sharing opts.
func XeroClientFactory(opts xero.Options) ClientFactory {
	return func(creds domain.Credentials) (domain.AccountingAPI, error) {
		return xero.NewClient(creds, opts)
	}
}

// ClientManager owns the client lifecycle. Direct mode builds the client lazily and
// caches it until Invalidate; delegated mode builds a fresh client for every request
// from the credentials on its context and never shares it.
type ClientManager struct {
	mode     domain.AuthMode
	resolver credentials.Resolver
	factory  ClientFactory
	logger   *zap.Logger
	metrics  domain.Metrics

	mu        sync.Mutex
	cached    domain.AccountingAPI
	cachedFor domain.Credentials
}

func NewClientManager(mode domain.AuthMode, resolver credentials.Resolver, factory ClientFactory, logger *zap.Logger, metrics domain.Metrics) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &ClientManager{
		mode:     mode,
		resolver: resolver,
		factory:  factory,
		logger:   logger.Named("client_manager"),
		metrics:  metrics,
	}
}

// Client returns the client for this request's credentials.
func (m *ClientManager) Client(ctx context.Context) (domain.AccountingAPI, error) {
	creds, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if m.mode == domain.AuthModeDelegated {
		return m.build(ctx, creds)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil && m.cachedFor == creds {
		return m.cached, nil
	}
	client, err := m.build(ctx, creds)
	if err != nil {
		return nil, err
	}
	m.cached = client
	m.cachedFor = creds
	return client, nil
}

func (m *ClientManager) build(ctx context.Context, creds domain.Credentials) (domain.AccountingAPI, error) {
	client, err := m.factory(creds)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "client_manager.build", err)
	}
	m.metrics.ObserveClientBuild(m.mode)
	telemetry.LoggerWithRequest(ctx, m.logger).Debug("api client built",
		telemetry.EventField(telemetry.EventClientBuilt),
		telemetry.AuthModeField(m.mode),
	)
	return client, nil
}

// Invalidate drops the cached direct-mode client; the next call rebuilds it.
func (m *ClientManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		return
	}
	m.cached = nil
	m.cachedFor = domain.Credentials{}
	m.logger.Info("api client reset", telemetry.EventField(telemetry.EventClientReset))
}

func (m *ClientManager) Close() {
	m.Invalidate()
}

var _ domain.ClientSource = (*ClientManager)(nil)
