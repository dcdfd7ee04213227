package request

import (
	"fmt"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
)

// Search parameter limits.
const (
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Page is a validated limit/offset pair.
type Page struct {
	limit  int
	offset int
}

// NewPage normalizes pagination parameters.
// limit defaults to DefaultLimit and is clamped to MaxLimit; negative
// offsets become zero.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{limit: limit, offset: offset}
}

// Limit returns the page size.
func (p Page) Limit() int { return p.limit }

// Offset returns the number of results to skip.
func (p Page) Offset() int { return p.offset }

// Request is a validated search request. The filters are still raw; the
// filtering service compiles them once the orchestrator picks the request up.
type Request struct {
	query string
	raw   filter.Raw
	page  Page
}

// New validates and creates a search Request. An empty query is allowed
// (facet-only browsing); an overlong one is rejected.
func New(query string, raw filter.Raw, page Page) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)",
			domain.ErrInvalidArgument, MaxQueryLength)
	}
	return Request{query: query, raw: raw, page: page}, nil
}

// Query returns the free-text query, possibly empty.
func (r *Request) Query() string { return r.query }

// HasQuery reports whether free-text matching is requested.
func (r *Request) HasQuery() bool { return r.query != "" }

// RawFilters returns the uncompiled filter request.
func (r *Request) RawFilters() filter.Raw { return r.raw }

// Page returns the validated pagination window.
func (r *Request) Page() Page { return r.page }
