package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/accounting"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/gateway"
	"xeromcp/internal/infra/telemetry"
)

type stubAPI struct {
	creds domain.Credentials
}

func (s *stubAPI) Get(context.Context, string, url.Values) (any, error) { return nil, nil }
func (s *stubAPI) Post(context.Context, string, any) (any, error)      { return nil, nil }
func (s *stubAPI) Put(context.Context, string, any) (any, error)       { return nil, nil }
func (s *stubAPI) Delete(context.Context, string) (any, error)         { return nil, nil }
func (s *stubAPI) GetAllPages(context.Context, string, url.Values, string) ([]any, error) {
	return nil, nil
}

func freeAddr(t *testing.T) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())
	return addr.IP.String(), addr.Port
}

func newTestApplication(t *testing.T, cfg Config, builds *atomic.Int32) (*Application, *credentials.DirectResolver) {
	t.Helper()
	logger := zap.NewNop()
	registry := NewMetricsRegistry()
	metrics := NewMetrics(registry)
	resolver := credentials.NewDirectResolver(cfg.Credentials())
	clients := gateway.NewClientManager(cfg.AuthMode, resolver, func(creds domain.Credentials) (domain.AccountingAPI, error) {
		builds.Add(1)
		return &stubAPI{creds: creds}, nil
	}, logger, metrics)
	gw, err := NewGateway(cfg, accounting.Toolsets(), clients, logger, metrics)
	require.NoError(t, err)
	return NewApplication(cfg, logger, registry, metrics, resolver, clients, gw), resolver
}

func TestInitializeApplication(t *testing.T) {
	app, err := InitializeApplication(Config{
		Transport: domain.TransportStdio,
		AuthMode:  domain.AuthModeDirect,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, app)

	_, err = InitializeApplication(Config{
		Transport: domain.TransportStdio,
		AuthMode:  domain.AuthModeDelegated,
	}, zap.NewNop())
	require.Error(t, err)
}

func TestNewStaticCredentials_PrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accessToken: file-token\ntenantId: file-tenant\n"), 0o600))

	cfg := Config{AuthMode: domain.AuthModeDirect, AccessToken: "env-token", TenantID: "env-tenant", CredentialsFile: path}
	require.Equal(t, domain.Credentials{AccessToken: "file-token", TenantID: "file-tenant"},
		NewStaticCredentials(cfg, zap.NewNop()))

	cfg.CredentialsFile = filepath.Join(t.TempDir(), "missing.yaml")
	require.Equal(t, domain.Credentials{AccessToken: "env-token", TenantID: "env-tenant"},
		NewStaticCredentials(cfg, zap.NewNop()))
}

func TestApplication_ApplyCredentialsInvalidatesClient(t *testing.T) {
	var builds atomic.Int32
	app, resolver := newTestApplication(t, Config{
		Transport:   domain.TransportStdio,
		AuthMode:    domain.AuthModeDirect,
		AccessToken: "old",
		TenantID:    "tenant",
	}, &builds)

	ctx := context.Background()
	first, err := app.clients.Client(ctx)
	require.NoError(t, err)

	app.ApplyCredentials(resolver, domain.Credentials{AccessToken: "old", TenantID: "tenant"})
	same, err := app.clients.Client(ctx)
	require.NoError(t, err)
	require.Same(t, first, same)

	app.ApplyCredentials(resolver, domain.Credentials{AccessToken: "new", TenantID: "tenant"})
	rebuilt, err := app.clients.Client(ctx)
	require.NoError(t, err)
	require.NotSame(t, first, rebuilt)
	require.Equal(t, "new", rebuilt.(*stubAPI).creds.AccessToken)
	require.Equal(t, int32(2), builds.Load())
}

func TestApplication_RunServesHTTPAndObservability(t *testing.T) {
	host, port := freeAddr(t)
	metricsHost, metricsPort := freeAddr(t)
	metricsAddr := net.JoinHostPort(metricsHost, strconv.Itoa(metricsPort))

	var builds atomic.Int32
	app, _ := newTestApplication(t, Config{
		Transport:       domain.TransportHTTP,
		AuthMode:        domain.AuthModeDelegated,
		Host:            host,
		Port:            port,
		MetricsAddr:     metricsAddr,
		ShutdownTimeout: 2 * time.Second,
	}, &builds)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	healthURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + domain.HealthPath
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	var report telemetry.HealthReport
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + metricsAddr + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&report) == nil
	}, 3*time.Second, 20*time.Millisecond)
	require.Equal(t, "ok", report.Status)
	require.Equal(t, "delegated", report.Details["authMode"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestApplication_RunReloadsCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accessToken: first\ntenantId: tenant\n"), 0o600))
	host, port := freeAddr(t)

	var builds atomic.Int32
	app, resolver := newTestApplication(t, Config{
		Transport:       domain.TransportHTTP,
		AuthMode:        domain.AuthModeDirect,
		Host:            host,
		Port:            port,
		CredentialsFile: path,
		ShutdownTimeout: time.Second,
	}, &builds)
	resolver.Set(domain.Credentials{AccessToken: "first", TenantID: "tenant"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to subscribe before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("accessToken: second\ntenantId: tenant\n"), 0o600))

	require.Eventually(t, func() bool {
		return resolver.Current().AccessToken == "second"
	}, 3*time.Second, 20*time.Millisecond)
}
