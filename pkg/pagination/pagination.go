package pagination

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/article39/artist-platform-backend/pkg/types"
)

const (
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 10
	// MaxLimit caps how many rows a single page may hold.
	MaxLimit = 50
	// MaxPage keeps Offset inside int32 for every allowed limit.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Query-string conventions. Workflow listings use p/page_size, the public
// website uses page/perPage.
const (
	PageParam        = "p"
	PageSizeParam    = "page_size"
	WebPageParam     = "page"
	WebPageSizeParam = "perPage"
)

// Params holds offset pagination inputs resolved from a request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip. It saturates instead of
// overflowing.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Normalize applies defaults and caps.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// FromQuery reads the page and size parameters named pageKey and sizeKey.
// Unparseable values fall back to defaults.
func FromQuery(q url.Values, pageKey, sizeKey string) Params {
	return Params{
		Page:  atoi(q.Get(pageKey)),
		Limit: atoi(q.Get(sizeKey)),
	}.Normalize()
}

// InRange reports whether the requested page exists for total rows. The
// first page always exists.
func (p Params) InRange(total int64) bool {
	return p.Page == 1 || int64(p.Offset()) < total
}

// Page is a page of results with links to its neighbours.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds a Page. Links are derived from base by rewriting its p query
// parameter; base may be nil, in which case links are omitted.
func NewPage[T any](results []T, total int64, params Params, base *url.URL) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if base == nil {
		return page
	}
	if int64(params.Offset()+len(results)) < total {
		page.Next = link(base, params.Page+1)
	}
	if params.Page > 1 {
		page.Previous = link(base, params.Page-1)
	}
	return page
}

// Meta summarizes a page in the public website shape.
func Meta(total int64, params Params) types.PageMeta {
	totalPages := int(total / int64(params.Limit))
	if total%int64(params.Limit) != 0 {
		totalPages++
	}
	return types.PageMeta{
		Total:      total,
		PerPage:    params.Limit,
		Page:       params.Page,
		TotalPage:  totalPages,
		IsLastPage: params.Page >= totalPages,
	}
}

func link(base *url.URL, page int) *string {
	u := *base
	q := u.Query()
	if page <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	// out-of-range values saturate and are clamped by Normalize
	return n
}
