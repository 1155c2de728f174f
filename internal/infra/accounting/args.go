package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"xeromcp/internal/domain"
)

// decodeArgs unmarshals tool arguments. Absent or null arguments decode to the zero value.
func decodeArgs[T any](op string, raw json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, domain.InvalidArgument(op, "arguments must be a JSON object matching the tool schema: %v", err)
	}
	return out, nil
}

func requireString(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.InvalidArgument(op, "%s is required", field)
	}
	return nil
}

func requireOneOf(op, field, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return domain.InvalidArgument(op, "%s must be one of %s", field, strings.Join(allowed, ", "))
}

// resourcePath joins a collection with an escaped identifier.
func resourcePath(collection, id string, rest ...string) string {
	parts := append([]string{collection, url.PathEscape(strings.TrimSpace(id))}, rest...)
	return "/" + strings.Join(parts, "/")
}

type listArgs struct {
	Page  int    `json:"page,omitempty"`
	All   bool   `json:"all,omitempty"`
	Where string `json:"where,omitempty"`
	Order string `json:"order,omitempty"`
}

func (a listArgs) validate(op string) error {
	if a.Page < 0 {
		return domain.InvalidArgument(op, "page must be 1 or greater")
	}
	if a.All && a.Page > 0 {
		return domain.InvalidArgument(op, "page and all are mutually exclusive")
	}
	return nil
}

func (a listArgs) query() url.Values {
	query := url.Values{}
	if a.Where != "" {
		query.Set("where", a.Where)
	}
	if a.Order != "" {
		query.Set("order", a.Order)
	}
	return query
}

// list fetches a single page, or every page when all is set.
func list(ctx context.Context, api domain.AccountingAPI, path, field string, args listArgs, query url.Values) (any, error) {
	if args.All {
		items, err := api.GetAllPages(ctx, path, query, field)
		if err != nil {
			return nil, err
		}
		return map[string]any{field: items, "Count": len(items)}, nil
	}
	page := args.Page
	if page == 0 {
		page = 1
	}
	query.Set("page", strconv.Itoa(page))
	return api.Get(ctx, path, query)
}

func setIfNotEmpty(query url.Values, key, value string) {
	if strings.TrimSpace(value) != "" {
		query.Set(key, value)
	}
}

// envelope wraps a single record in the plural collection key the API expects.
func envelope(field string, record any) map[string]any {
	return map[string]any{field: []any{record}}
}
