package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/accounting"
	"xeromcp/internal/infra/router"
	"xeromcp/internal/infra/telemetry"
)

type Options struct {
	Transport       domain.TransportKind
	AuthMode        domain.AuthMode
	Host            string
	Port            int
	ServerName      string
	Version         string
	ShutdownTimeout time.Duration
}

// Gateway hosts the MCP tool surface over stdio or streamable HTTP.
type Gateway struct {
	opts     Options
	toolsets map[domain.Domain]accounting.Toolset
	clients  domain.ClientSource
	logger   *zap.Logger
	metrics  domain.Metrics

	sessionsMu sync.Mutex
	sessions   map[string]*session
	calls      callTracker
}

func NewGateway(opts Options, toolsets map[domain.Domain]accounting.Toolset, clients domain.ClientSource, logger *zap.Logger, metrics domain.Metrics) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if opts.Transport == "" {
		opts.Transport = domain.TransportStdio
	}
	if opts.AuthMode == "" {
		opts.AuthMode = domain.AuthModeDirect
	}
	if opts.Transport == domain.TransportStdio && opts.AuthMode == domain.AuthModeDelegated {
		return nil, domain.E(domain.CodeInvalidArgument, "gateway.new",
			"delegated credentials require the http transport", nil)
	}
	if opts.ServerName == "" {
		opts.ServerName = domain.DefaultServerName
	}
	if opts.Version == "" {
		opts.Version = domain.Version
	}
	if opts.Host == "" {
		opts.Host = domain.DefaultHTTPHost
	}
	if opts.Port <= 0 {
		opts.Port = domain.DefaultHTTPPort
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = time.Duration(domain.DefaultShutdownSecs) * time.Second
	}
	g := &Gateway{
		opts:     opts,
		toolsets: toolsets,
		clients:  clients,
		logger:   logger.Named("gateway"),
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
	// Build one router up front so a broken toolset map fails at start.
	if _, err := router.New(router.Options{Toolsets: toolsets, Clients: clients}); err != nil {
		return nil, err
	}
	return g, nil
}

// Run serves until ctx is done or the transport ends.
func (g *Gateway) Run(ctx context.Context) error {
	switch g.opts.Transport {
	case domain.TransportStdio:
		g.logger.Info("gateway starting",
			telemetry.TransportField(domain.TransportStdio),
			telemetry.AuthModeField(g.opts.AuthMode),
		)
		return g.Serve(ctx, &mcp.StdioTransport{})
	case domain.TransportHTTP:
		return g.RunHTTP(ctx)
	default:
		return domain.E(domain.CodeInvalidArgument, "gateway.run", "unknown transport "+string(g.opts.Transport), nil)
	}
}

// Serve runs a single session over transport. Navigation state lives for the
// whole session.
func (g *Gateway) Serve(ctx context.Context, transport mcp.Transport) error {
	s, err := g.newSession(uuid.NewString())
	if err != nil {
		return err
	}
	// The session outlives ctx until in-flight tool calls finish or the drain times out.
	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			g.drainCalls()
			stop()
		case <-finished:
		}
	}()

	err = s.server.Run(runCtx, transport)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// drainCalls waits up to ShutdownTimeout for in-flight tool calls.
func (g *Gateway) drainCalls() {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.ShutdownTimeout)
	defer cancel()
	if err := g.calls.wait(ctx); err != nil {
		g.logger.Warn("abandoning in-flight tool calls",
			zap.Int("calls", g.calls.inFlight()),
			zap.Error(err),
		)
	}
}

// Addr is the configured HTTP listen address.
func (g *Gateway) Addr() string {
	return net.JoinHostPort(g.opts.Host, strconv.Itoa(g.opts.Port))
}

// RunHTTP listens on Addr until ctx is done, then stops accepting connections,
// lets in-flight tool calls answer, closes every live session and returns.
func (g *Gateway) RunHTTP(ctx context.Context) error {
	listener, err := net.Listen("tcp", g.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.Addr(), err)
	}
	return g.ServeHTTP(ctx, listener)
}

// ServeHTTP serves the HTTP surface on listener.
func (g *Gateway) ServeHTTP(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown closes the listener before running this hook. Sessions close once
	// in-flight tool calls have answered, which ends their open streams.
	drained := make(chan struct{})
	server.RegisterOnShutdown(func() {
		defer close(drained)
		g.drainCalls()
		g.closeSessions()
	})

	errChan := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening",
			telemetry.TransportField(domain.TransportHTTP),
			telemetry.AuthModeField(g.opts.AuthMode),
			zap.String("addr", listener.Addr().String()),
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok && err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	g.logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.opts.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		g.logger.Warn("gateway shutdown incomplete", zap.Error(err))
		_ = server.Close()
	}
	select {
	case <-drained:
	case <-shutdownCtx.Done():
	}
	g.logger.Info("gateway stopped")
	return nil
}
