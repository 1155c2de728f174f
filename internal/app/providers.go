package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/accounting"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/gateway"
	"xeromcp/internal/infra/telemetry"
	"xeromcp/internal/infra/xero"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

// NewStaticCredentials returns the direct-mode pair. A configured credentials file
// wins over the environment; an unreadable file falls back to the environment so the
// failure surfaces at dispatch instead of at start.
func NewStaticCredentials(cfg Config, logger *zap.Logger) domain.Credentials {
	creds := cfg.Credentials()
	if cfg.AuthMode != domain.AuthModeDirect || cfg.CredentialsFile == "" {
		return creds
	}
	fromFile, err := credentials.LoadFile(cfg.CredentialsFile)
	if err != nil {
		logger.Warn("credentials file unreadable, using environment",
			zap.String("path", cfg.CredentialsFile), zap.Error(err))
		return creds
	}
	return fromFile
}

func NewResolver(cfg Config, static domain.Credentials) (credentials.Resolver, error) {
	return credentials.NewResolver(cfg.AuthMode, static)
}

func NewClientFactory(cfg Config, logger *zap.Logger, metrics domain.Metrics) gateway.ClientFactory {
	return gateway.XeroClientFactory(xero.Options{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: &http.Client{},
		Logger:     logger,
		Metrics:    metrics,
	})
}

func NewClientManager(cfg Config, resolver credentials.Resolver, factory gateway.ClientFactory, logger *zap.Logger, metrics domain.Metrics) *gateway.ClientManager {
	return gateway.NewClientManager(cfg.AuthMode, resolver, factory, logger, metrics)
}

func NewToolsets() map[domain.Domain]accounting.Toolset {
	return accounting.Toolsets()
}

func NewGateway(cfg Config, toolsets map[domain.Domain]accounting.Toolset, clients *gateway.ClientManager, logger *zap.Logger, metrics domain.Metrics) (*gateway.Gateway, error) {
	return gateway.NewGateway(gateway.Options{
		Transport:       cfg.Transport,
		AuthMode:        cfg.AuthMode,
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         domain.Version,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, toolsets, clients, logger, metrics)
}
