package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/telemetry"
)

type healthResponse struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
	AuthMode  string `json:"authMode"`
	Timestamp string `json:"timestamp"`
}

type unauthorizedResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Required []string `json:"required"`
}

type notFoundResponse struct {
	Error     string   `json:"error"`
	Endpoints []string `json:"endpoints"`
}

// Handler serves /health, /mcp and a JSON 404 for everything else.
func (g *Gateway) Handler() http.Handler {
	var mcpHandler http.Handler = mcp.NewStreamableHTTPHandler(g.serverForRequest, nil)
	if g.opts.AuthMode == domain.AuthModeDelegated {
		mcpHandler = g.requireCredentials(mcpHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+domain.HealthPath, g.handleHealth)
	mux.Handle(domain.MCPPath, mcpHandler)
	mux.HandleFunc("/", handleNotFound)
	return telemetry.RequestIDMiddleware(mux)
}

// serverForRequest is called once per new MCP session.
func (g *Gateway) serverForRequest(r *http.Request) *mcp.Server {
	s, err := g.newSession(uuid.NewString())
	if err != nil {
		telemetry.LoggerWithRequest(r.Context(), g.logger).Error("session setup failed", zap.Error(err))
		return nil
	}
	return s.server
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Transport: string(domain.TransportHTTP),
		AuthMode:  string(g.opts.AuthMode),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Error:     "Not found",
		Endpoints: []string{domain.HealthPath, domain.MCPPath},
	})
}

// requireCredentials rejects delegated-mode requests that lack either credential header.
func (g *Gateway) requireCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		missing := credentials.MissingHeaders(r.Header)
		if len(missing) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		g.metrics.ObserveAuthFailure("missing_headers")
		telemetry.LoggerWithRequest(r.Context(), g.logger).Warn("request rejected",
			telemetry.EventField(telemetry.EventAuthRejected),
			zap.Strings("missing", missing),
		)
		writeJSON(w, http.StatusUnauthorized, unauthorizedResponse{
			Error:    "Unauthorized",
			Message:  "Delegated mode requires Xero credentials on every request",
			Required: credentials.RequiredHeaders,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
