package listings

import (
	"net/url"
	"strconv"

	"github.com/induohouse/induoweb/internal/domain"
)

// QueryValues serializes f for the search endpoint. Absent fields are
// omitted; page, size and sort are always sent with their defaults applied.
func QueryValues(f domain.Filter) url.Values {
	f = f.Normalized()
	q := url.Values{}
	for _, field := range domain.FilterFields {
		if field == domain.FieldSort {
			continue
		}
		if v := f.Get(field); v != "" {
			q.Set(string(field), v)
		}
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("size", strconv.Itoa(f.Size))
	sort := f.Sort
	if sort == "" {
		sort = domain.DefaultSort
	}
	q.Set("sort", sort)
	return q
}
