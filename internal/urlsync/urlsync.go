// Package urlsync mirrors the search filter in a navigable URL query string.
package urlsync

import (
	"net/url"
	"strconv"

	"github.com/induohouse/induoweb/internal/domain"
)

// Encode serializes the filter for the address bar. Absent fields, page 0,
// the default size and the default sort are left out so the canonical URL
// for a fresh search is the bare path.
func Encode(f domain.Filter) url.Values {
	q := url.Values{}
	for _, field := range domain.FilterFields {
		v := f.Get(field)
		if v == "" || (field == domain.FieldSort && v == domain.DefaultSort) {
			continue
		}
		q.Set(string(field), v)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 && f.Size != domain.DefaultPageSize {
		q.Set("size", strconv.Itoa(f.Size))
	}
	return q
}

// Replace returns path with its query replaced by the encoded filter.
func Replace(path string, f domain.Filter) string {
	q := Encode(f).Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// Seed builds the initial filter from a URL query. Unparseable values are
// dropped rather than failing the page load.
func Seed(q url.Values) domain.Filter {
	var f domain.Filter
	for _, field := range domain.FilterFields {
		if raw := q.Get(string(field)); raw != "" {
			_ = f.Set(field, raw)
		}
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		f.Page = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		f.Size = n
	}
	return f.Normalized()
}
