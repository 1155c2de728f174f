package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/telemetry"
)

var delegatedOpts = Options{Transport: domain.TransportHTTP, AuthMode: domain.AuthModeDelegated}

// headerTransport stamps fixed headers onto every outgoing request.
type headerTransport struct {
	header http.Header
	base   http.RoundTripper
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, values := range h.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return h.base.RoundTrip(req)
}

func connectHTTP(t *testing.T, ctx context.Context, endpoint string, header http.Header) *mcp.ClientSession {
	t.Helper()
	transport := &mcp.StreamableClientTransport{
		Endpoint: endpoint,
		HTTPClient: &http.Client{Transport: &headerTransport{
			header: header,
			base:   http.DefaultTransport,
		}},
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func credentialHeaders(token, tenant string) http.Header {
	header := http.Header{}
	header.Set(domain.HeaderAccessToken, token)
	header.Set(domain.HeaderTenantID, tenant)
	return header
}

func TestHTTP_Health(t *testing.T) {
	g := newTestGateway(t, delegatedOpts, domain.Credentials{}, &fakeDoer{})
	server := httptest.NewServer(g.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + domain.HealthPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(telemetry.RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "http", body["transport"])
	require.Equal(t, "delegated", body["authMode"])
	_, err = time.Parse(time.RFC3339, body["timestamp"])
	require.NoError(t, err)
}

func TestHTTP_UnknownPathIsJSONNotFound(t *testing.T) {
	g := newTestGateway(t, Options{Transport: domain.TransportHTTP}, directCreds, &fakeDoer{})
	server := httptest.NewServer(g.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body struct {
		Error     string   `json:"error"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Not found", body.Error)
	require.Equal(t, []string{"/health", "/mcp"}, body.Endpoints)
}

func TestHTTP_DelegatedRejectsMissingHeaders(t *testing.T) {
	doer := &fakeDoer{}
	g := newTestGateway(t, delegatedOpts, domain.Credentials{}, doer)
	server := httptest.NewServer(g.Handler())
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+domain.MCPPath,
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(domain.HeaderAccessToken, "token-only")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body struct {
		Error    string   `json:"error"`
		Message  string   `json:"message"`
		Required []string `json:"required"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Unauthorized", body.Error)
	require.NotEmpty(t, body.Message)
	require.Equal(t, []string{domain.HeaderAccessToken, domain.HeaderTenantID}, body.Required)
	require.Empty(t, doer.recorded())
}

func TestHTTP_DelegatedCredentialsReachTheAPI(t *testing.T) {
	ctx := context.Background()
	doer := &fakeDoer{body: `{"Accounts":[{"AccountID":"a1"}]}`}
	g := newTestGateway(t, delegatedOpts, domain.Credentials{}, doer)
	server := httptest.NewServer(g.Handler())
	t.Cleanup(server.Close)

	alice := connectHTTP(t, ctx, server.URL+domain.MCPPath, credentialHeaders("tok-a", "tenant-a"))
	bob := connectHTTP(t, ctx, server.URL+domain.MCPPath, credentialHeaders("tok-b", "tenant-b"))

	res, err := alice.CallTool(ctx, &mcp.CallToolParams{Name: "xero_accounts_list"})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	res, err = bob.CallTool(ctx, &mcp.CallToolParams{Name: "xero_accounts_list"})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	requests := doer.recorded()
	require.Len(t, requests, 2)
	require.Equal(t, "Bearer tok-a", requests[0].Header.Get("Authorization"))
	require.Equal(t, "tenant-a", requests[0].Header.Get("xero-tenant-id"))
	require.Equal(t, "Bearer tok-b", requests[1].Header.Get("Authorization"))
	require.Equal(t, "tenant-b", requests[1].Header.Get("xero-tenant-id"))
}

func TestHTTP_SessionsNavigateIndependently(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, Options{Transport: domain.TransportHTTP}, directCreds, &fakeDoer{})
	server := httptest.NewServer(g.Handler())
	t.Cleanup(server.Close)

	first := connectHTTP(t, ctx, server.URL+domain.MCPPath, nil)
	second := connectHTTP(t, ctx, server.URL+domain.MCPPath, nil)

	res, err := first.CallTool(ctx, &mcp.CallToolParams{
		Name:      domain.NavigateTool,
		Arguments: map[string]any{"domain": "payments"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	require.Contains(t, listToolNames(t, ctx, first), "xero_payments_create")
	require.Equal(t, []string{domain.NavigateTool}, listToolNames(t, ctx, second))
	require.Eventually(t, func() bool { return g.ActiveSessions() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeHTTP_ShutdownClosesSessions(t *testing.T) {
	g := newTestGateway(t, Options{Transport: domain.TransportHTTP, ShutdownTimeout: 2 * time.Second}, directCreds, &fakeDoer{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.ServeHTTP(ctx, listener) }()

	session := connectHTTP(t, context.Background(), "http://"+listener.Addr().String()+domain.MCPPath, nil)
	_ = listToolNames(t, context.Background(), session)
	require.Eventually(t, func() bool { return g.ActiveSessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP did not return after cancellation")
	}
	require.Eventually(t, func() bool { return g.ActiveSessions() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err = http.Get("http://" + listener.Addr().String() + domain.HealthPath)
	require.Error(t, err)
}

func TestServeHTTP_ShutdownWaitsForInFlightCall(t *testing.T) {
	doer := newBlockingDoer(`{"Contacts":[{"ContactID":"c1"}]}`)
	g := newTestGateway(t, Options{Transport: domain.TransportHTTP, ShutdownTimeout: 5 * time.Second}, directCreds, doer)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.ServeHTTP(ctx, listener) }()

	session := connectHTTP(t, context.Background(), "http://"+addr+domain.MCPPath, nil)

	type callResult struct {
		res *mcp.CallToolResult
		err error
	}
	results := make(chan callResult, 1)
	go func() {
		res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "xero_contacts_get",
			Arguments: map[string]any{"ContactID": "c1"},
		})
		results <- callResult{res, err}
	}()
	doer.awaitStarted(t)

	cancel()
	// The listener closes as soon as shutdown begins.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return true
		}
		_ = conn.Close()
		return false
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, g.ActiveSessions())
	close(doer.release)

	select {
	case got := <-results:
		require.NoError(t, got.err)
		require.False(t, got.res.IsError, textOf(t, got.res))
		require.Contains(t, textOf(t, got.res), "c1")
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight call never answered")
	}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP did not return after the call finished")
	}
	require.Eventually(t, func() bool { return g.ActiveSessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}
