package listings

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/induohouse/induoweb/internal/domain"
)

// rawPage accepts both the Spring Page shape (number/size) and the
// PageResponse shape (currentPage/pageSize).
type rawPage struct {
	Content       []domain.Listing `json:"content"`
	Number        *int             `json:"number"`
	Size          *int             `json:"size"`
	CurrentPage   *int             `json:"currentPage"`
	PageSize      *int             `json:"pageSize"`
	TotalElements *int64           `json:"totalElements"`
	TotalPages    *int             `json:"totalPages"`
	First         *bool            `json:"first"`
	Last          *bool            `json:"last"`
}

// NormalizePage decodes any backend page shape, including a bare JSON array,
// into a PageResult. requestedPage and requestedSize fill in what the payload
// leaves out. CurrentPage is always within [0, TotalPages-1], or 0 when there
// are no pages.
func NormalizePage(body []byte, requestedPage, requestedSize int) (*domain.PageResult, error) {
	if requestedSize <= 0 {
		requestedSize = domain.DefaultPageSize
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.Listing
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode listing array: %w", err)
		}
		return fromArray(items, requestedSize), nil
	}

	var raw rawPage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode listing page: %w", err)
	}

	p := &domain.PageResult{Content: raw.Content}
	if p.Content == nil {
		p.Content = []domain.Listing{}
	}

	p.PageSize = firstInt(requestedSize, raw.PageSize, raw.Size)
	if p.PageSize <= 0 {
		p.PageSize = requestedSize
	}
	p.CurrentPage = firstInt(requestedPage, raw.CurrentPage, raw.Number)

	if raw.TotalElements != nil {
		p.TotalElements = *raw.TotalElements
	} else {
		p.TotalElements = int64(len(p.Content))
	}
	if raw.TotalPages != nil {
		p.TotalPages = *raw.TotalPages
	} else {
		p.TotalPages = int((p.TotalElements + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	if p.TotalPages < 0 {
		p.TotalPages = 0
	}

	p.CurrentPage = clampPage(p.CurrentPage, p.TotalPages)

	if raw.First != nil {
		p.First = *raw.First
	} else {
		p.First = p.CurrentPage == 0
	}
	if raw.Last != nil {
		p.Last = *raw.Last
	} else {
		p.Last = p.TotalPages == 0 || p.CurrentPage >= p.TotalPages-1
	}
	return p, nil
}

func fromArray(items []domain.Listing, size int) *domain.PageResult {
	if items == nil {
		items = []domain.Listing{}
	}
	p := &domain.PageResult{
		Content:       items,
		PageSize:      size,
		TotalElements: int64(len(items)),
		First:         true,
		Last:          true,
	}
	if len(items) > 0 {
		p.TotalPages = 1
		if len(items) > size {
			p.PageSize = len(items)
		}
	}
	return p
}

func firstInt(fallback int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return fallback
}

func clampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 0 {
		return 0
	}
	if page > totalPages-1 {
		return totalPages - 1
	}
	return page
}
