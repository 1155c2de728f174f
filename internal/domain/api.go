package domain

import (
	"context"
	"net/url"
)

// AccountingAPI is the authenticated REST surface used by domain handlers.
type AccountingAPI interface {
	Get(ctx context.Context, path string, query url.Values) (any, error)
	Post(ctx context.Context, path string, body any) (any, error)
	Put(ctx context.Context, path string, body any) (any, error)
	Delete(ctx context.Context, path string) (any, error)
	GetAllPages(ctx context.Context, path string, query url.Values, field string) ([]any, error)
}

// ClientSource hands out an API client bound to the credentials in effect for ctx.
type ClientSource interface {
	Client(ctx context.Context) (AccountingAPI, error)
}
