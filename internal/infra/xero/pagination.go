package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// GetAllPages walks the 1-based page parameter and concatenates the array field of
// every page. A page with fewer than the page size stops the walk, so an exact multiple
// of the page size costs one trailing empty request.
func (c *Client) GetAllPages(ctx context.Context, path string, query url.Values, field string) ([]any, error) {
	var items []any
	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("paginate %s: exceeded %d pages", path, c.maxPages)
		}
		pageQuery := cloneQuery(query)
		pageQuery.Set("page", strconv.Itoa(page))

		raw, err := c.do(ctx, http.MethodGet, path, pageQuery, nil)
		if err != nil {
			return nil, err
		}
		batch, err := extractItems(raw, field)
		if err != nil {
			return nil, fmt.Errorf("paginate %s page %d: %w", path, page, err)
		}
		items = append(items, batch...)
		if len(batch) < c.pageSize {
			break
		}
	}
	if items == nil {
		items = []any{}
	}
	return items, nil
}

func cloneQuery(query url.Values) url.Values {
	out := make(url.Values, len(query)+1)
	for key, values := range query {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// extractItems returns the named array field, or the first top-level array field in
// document order when no name is given. Missing bodies and missing fields yield no items.
func extractItems(raw []byte, field string) ([]any, error) {
	if raw == nil {
		return nil, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if field == "" {
		name, ok, err := firstArrayField(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		field = name
	}
	value, ok := envelope[field]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, nil
	}
	var items []any
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, fmt.Errorf("field %q is not an array: %w", field, err)
	}
	return items, nil
}

// firstArrayField scans the top-level object's keys in document order; a decoded map
// would lose that order.
func firstArrayField(raw []byte) (string, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", false, fmt.Errorf("decode page: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", false, fmt.Errorf("decode page: expected object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", false, fmt.Errorf("decode page: %w", err)
		}
		key, _ := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", false, fmt.Errorf("decode page: %w", err)
		}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			return key, true, nil
		}
	}
	return "", false, nil
}
