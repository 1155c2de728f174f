package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/gateway"
	"xeromcp/internal/infra/telemetry"
)

// Application owns the gateway, the client lifecycle and the optional sidecars.
type Application struct {
	cfg      Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  domain.Metrics
	resolver credentials.Resolver
	clients  *gateway.ClientManager
	gateway  *gateway.Gateway
}

func NewApplication(
	cfg Config,
	logger *zap.Logger,
	registry *prometheus.Registry,
	metrics domain.Metrics,
	resolver credentials.Resolver,
	clients *gateway.ClientManager,
	gw *gateway.Gateway,
) *Application {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		cfg:      cfg,
		logger:   logger.Named("app"),
		registry: registry,
		metrics:  metrics,
		resolver: resolver,
		clients:  clients,
		gateway:  gw,
	}
}

// Run serves until ctx is done or the gateway stops. The observability listener and
// the credentials watcher stop with it.
func (a *Application) Run(ctx context.Context) error {
	defer a.clients.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	a.logger.Info("starting",
		telemetry.TransportField(a.cfg.Transport),
		telemetry.AuthModeField(a.cfg.AuthMode),
		zap.String("version", domain.Version),
	)

	group.Go(func() error {
		defer cancel()
		return a.gateway.Run(groupCtx)
	})

	if a.cfg.MetricsAddr != "" {
		group.Go(func() error {
			return telemetry.StartHTTPServer(groupCtx, telemetry.HTTPServerOptions{
				Addr:          a.cfg.MetricsAddr,
				EnableMetrics: true,
				EnableHealthz: true,
				Health:        a.Health,
				Registry:      a.registry,
			}, a.logger)
		})
	}

	if watcher := a.credentialsWatcher(); watcher != nil {
		group.Go(func() error {
			return watcher.Run(groupCtx)
		})
	}

	err := group.Wait()
	a.logger.Info("stopped")
	return err
}

// Health reports liveness for /healthz.
func (a *Application) Health() telemetry.HealthReport {
	return telemetry.HealthReport{
		Status: "ok",
		Details: map[string]any{
			"transport":      string(a.cfg.Transport),
			"authMode":       string(a.cfg.AuthMode),
			"activeSessions": a.gateway.ActiveSessions(),
		},
	}
}

func (a *Application) credentialsWatcher() *credentials.FileWatcher {
	if a.cfg.CredentialsFile == "" {
		return nil
	}
	direct, ok := a.resolver.(*credentials.DirectResolver)
	if !ok {
		return nil
	}
	return credentials.NewFileWatcher(a.cfg.CredentialsFile, func(creds domain.Credentials) {
		a.ApplyCredentials(direct, creds)
	}, a.logger)
}

// ApplyCredentials swaps the direct-mode pair and tears down the cached client so the
// next dispatch rebuilds it.
func (a *Application) ApplyCredentials(resolver *credentials.DirectResolver, creds domain.Credentials) {
	if !resolver.Set(creds) {
		return
	}
	a.clients.Invalidate()
	a.logger.Info("credentials reloaded",
		telemetry.EventField(telemetry.EventCredentialsSet),
		zap.Bool("complete", creds.Complete()),
	)
}
