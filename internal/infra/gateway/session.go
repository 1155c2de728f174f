package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/router"
	"xeromcp/internal/infra/telemetry"
)

const methodCallTool = "tools/call"

// session binds one MCP server to its own navigation state.
type session struct {
	id       string
	server   *mcp.Server
	router   *router.Router
	registry *toolRegistry
	logger   *zap.Logger

	attachOnce sync.Once
	mu         sync.Mutex
	live       *mcp.ServerSession
}

func (g *Gateway) newSession(id string) (*session, error) {
	r, err := router.New(router.Options{
		Toolsets:  g.toolsets,
		Clients:   g.clients,
		Logger:    g.logger,
		Metrics:   g.metrics,
		SessionID: id,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		id:     id,
		router: r,
		logger: g.logger.With(telemetry.SessionIDField(id)),
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    g.opts.ServerName,
		Version: g.opts.Version,
	}, &mcp.ServerOptions{
		Instructions: r.NavigationPrompt(),
		Capabilities: &mcp.ServerCapabilities{
			Logging: &mcp.LoggingCapabilities{},
			Tools:   &mcp.ToolCapabilities{ListChanged: true},
		},
		GetSessionID: func() string { return id },
	})
	s.registry = newToolRegistry(s.server, s.toolHandler, s.logger)
	s.registry.Apply(r.ListTools())
	r.OnChange(func(_ domain.Domain, tools []*mcp.Tool) {
		s.registry.Apply(tools)
	})
	s.server.AddReceivingMiddleware(g.sessionMiddleware(s))
	return s, nil
}

func (s *session) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.router.Dispatch(ctx, name, req.Params.Arguments), nil
	}
}

func (s *session) serverSession() *mcp.ServerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// sessionMiddleware tracks the live session and its in-flight tool calls, and routes
// every tools/call through the router, including names that are not currently registered.
func (g *Gateway) sessionMiddleware(s *session) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if ss, ok := req.GetSession().(*mcp.ServerSession); ok && ss != nil {
				s.attachOnce.Do(func() { g.attach(s, ss) })
			}
			if method != methodCallTool {
				return next(ctx, method, req)
			}
			g.calls.begin()
			defer g.calls.end()
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}

			ctx, _ = telemetry.EnsureRequestMeta(ctx, requestIDFromExtra(call.Extra))
			if g.opts.AuthMode == domain.AuthModeDelegated {
				var header http.Header
				if call.Extra != nil {
					header = call.Extra.Header
				}
				creds, err := credentials.FromHeaders(header)
				if err != nil {
					g.metrics.ObserveAuthFailure("missing_headers")
					return router.ErrorResult(err), nil
				}
				ctx = domain.WithCredentials(ctx, creds)
			}

			if s.registry.Has(call.Params.Name) {
				return next(ctx, method, req)
			}
			return s.router.Dispatch(ctx, call.Params.Name, call.Params.Arguments), nil
		}
	}
}

func requestIDFromExtra(extra *mcp.RequestExtra) string {
	if extra == nil || extra.Header == nil {
		return ""
	}
	return extra.Header.Get(telemetry.RequestIDHeader)
}

func (g *Gateway) attach(s *session, ss *mcp.ServerSession) {
	s.mu.Lock()
	s.live = ss
	s.mu.Unlock()

	count := g.trackSession(s)
	s.logger.Info("session opened", telemetry.EventField(telemetry.EventSessionOpened))
	g.metrics.SetActiveSessions(count)

	go func() {
		_ = ss.Wait()
		count := g.untrackSession(s.id)
		s.logger.Info("session closed", telemetry.EventField(telemetry.EventSessionClosed))
		g.metrics.SetActiveSessions(count)
	}()
}

func (g *Gateway) trackSession(s *session) int {
	g.sessionsMu.Lock()
	defer g.sessionsMu.Unlock()
	g.sessions[s.id] = s
	return len(g.sessions)
}

func (g *Gateway) untrackSession(id string) int {
	g.sessionsMu.Lock()
	defer g.sessionsMu.Unlock()
	delete(g.sessions, id)
	return len(g.sessions)
}

// ActiveSessions returns the number of live MCP sessions.
func (g *Gateway) ActiveSessions() int {
	g.sessionsMu.Lock()
	defer g.sessionsMu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) closeSessions() {
	g.sessionsMu.Lock()
	live := make([]*session, 0, len(g.sessions))
	for _, s := range g.sessions {
		live = append(live, s)
	}
	g.sessionsMu.Unlock()

	for _, s := range live {
		if ss := s.serverSession(); ss != nil {
			if err := ss.Close(); err != nil {
				s.logger.Debug("session close failed", zap.Error(err))
			}
		}
	}
}
