package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/accounting"
	"xeromcp/internal/infra/credentials"
	"xeromcp/internal/infra/xero"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// fakeDoer stands in for the accounting API over HTTP.
type fakeDoer struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Body:   body,
	})
	status, respBody := f.status, f.body
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	if respBody == "" {
		respBody = `{"Status":"OK"}`
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(respBody)),
	}, nil
}

func (f *fakeDoer) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

// blockingDoer holds every request until release is closed.
type blockingDoer struct {
	body    string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingDoer(body string) *blockingDoer {
	return &blockingDoer{
		body:    body,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingDoer) Do(req *http.Request) (*http.Response, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(b.body)),
	}, nil
}

func (b *blockingDoer) awaitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the API")
	}
}

func newTestGateway(t *testing.T, opts Options, static domain.Credentials, doer xero.Doer) *Gateway {
	t.Helper()
	if opts.AuthMode == "" {
		opts.AuthMode = domain.AuthModeDirect
	}
	resolver, err := credentials.NewResolver(opts.AuthMode, static)
	require.NoError(t, err)
	clients := NewClientManager(opts.AuthMode, resolver, XeroClientFactory(xero.Options{
		BaseURL:    "https://api.example.test/api.xro/2.0",
		HTTPClient: doer,
	}), zap.NewNop(), nil)
	g, err := NewGateway(opts, accounting.Toolsets(), clients, zap.NewNop(), nil)
	require.NoError(t, err)
	return g
}

// serveInMemory runs one gateway session over in-memory transports.
func serveInMemory(t *testing.T, g *Gateway, clientOpts *mcp.ClientOptions) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ct, st := mcp.NewInMemoryTransports()

	done := make(chan error, 1)
	go func() { done <- g.Serve(ctx, st) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, clientOpts)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session
}

func listToolNames(t *testing.T, ctx context.Context, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}
