package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"xeromcp/internal/domain"
	"xeromcp/internal/infra/telemetry"
)

const tracerName = "xeromcp/internal/infra/xero"

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseURL    string
	HTTPClient Doer
	PageSize   int
	MaxPages   int
	Logger     *zap.Logger
	Metrics    domain.Metrics

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Client is an authenticated accounting API client bound to one credential pair.
type Client struct {
	baseURL  string
	creds    domain.Credentials
	http     Doer
	pageSize int
	maxPages int
	logger   *zap.Logger
	metrics  domain.Metrics
	tracer   trace.Tracer
}

// NewClient refuses to build a client without both credential fields.
func NewClient(creds domain.Credentials, opts Options) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = domain.DefaultAPIBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = domain.DefaultMaxPages
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracerProvider := opts.TracerProvider
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}
	return &Client{
		baseURL:  baseURL,
		creds:    creds,
		http:     httpClient,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger.Named("xero"),
		metrics:  opts.Metrics,
		tracer:   tracerProvider.Tracer(tracerName),
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	raw, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	raw, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (c *Client) Delete(ctx context.Context, path string) (any, error) {
	raw, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// do returns the raw response body, or nil for 204 and empty bodies.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := c.endpoint(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, span := c.tracer.Start(ctx, "xero "+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("xero.path", path),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set(domain.APITenantHeader, c.creds.TenantID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%s %s: %w", method, path, err)
		} else {
			err = domain.E(domain.CodeUnavailable, "xero.request", fmt.Sprintf("%s %s: %v", method, path, err), err)
		}
		c.observe(ctx, method, path, 0, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read %s %s response: %w", method, path, err)
		c.observe(ctx, method, path, resp.StatusCode, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
		c.observe(ctx, method, path, resp.StatusCode, start, apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}

	c.observe(ctx, method, path, resp.StatusCode, start, nil)
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return raw, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

func (c *Client) observe(ctx context.Context, method, path string, status int, start time.Time, err error) {
	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObserveAPIRequest(domain.APIRequestMetric{
			Method:     method,
			StatusCode: status,
			Duration:   duration,
			Err:        err,
		})
	}
	logger := telemetry.LoggerWithRequest(ctx, c.logger)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		telemetry.DurationField(duration),
	}
	if err != nil {
		logger.Warn("api request failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("api request", fields...)
}

func decode(raw []byte) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// APIError carries a non-success response from the accounting API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	status := http.StatusText(e.StatusCode)
	if status == "" {
		status = "unknown status"
	}
	return fmt.Sprintf("xero api %s %s failed: %d %s: %s", e.Method, e.Path, e.StatusCode, status, e.Body)
}

func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

var _ domain.AccountingAPI = (*Client)(nil)
var _ domain.RemoteError = (*APIError)(nil)
