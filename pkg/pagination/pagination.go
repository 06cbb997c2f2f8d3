package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// Params holds normalized 1-based pagination parameters.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns page 1 with the default page size.
func DefaultParams() Params {
	return New(DefaultPage, DefaultLimit)
}

// New normalizes page and perPage: values below 1 fall back to the defaults.
// No upper bound is applied here. An offset that would overflow int
// saturates at math.MaxInt, which lies past any real total.
func New(page, perPage int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultLimit
	}
	offset := math.MaxInt
	if page-1 <= math.MaxInt/perPage {
		offset = (page - 1) * perPage
	}
	return Params{Page: page, PerPage: perPage, Offset: offset}
}

// FromRequest reads "page" and "limit" (or the older "per_page") from the
// query string. Malformed values are defaulted, never rejected, and the page
// size is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	page, perPage := fromQuery(r)
	return New(page, min(perPage, MaxLimit))
}

// FromRequestUncapped is FromRequest without the MaxLimit cap, for endpoints
// that page over an in-memory result and accept any positive limit.
func FromRequestUncapped(r *http.Request) Params {
	return New(fromQuery(r))
}

func fromQuery(r *http.Request) (page, perPage int) {
	q := r.URL.Query()
	raw := q.Get("limit")
	if raw == "" {
		raw = q.Get("per_page")
	}
	return atoiOr(q.Get("page"), DefaultPage), atoiOr(raw, DefaultLimit)
}

// Bounds returns the half-open [start, end) slice window of this page over
// total items, clamped to [0, total] so it can always index a slice of that
// length.
func (p Params) Bounds(total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	start = min(max(p.Offset, 0), total)
	end = start + min(max(p.PerPage, 0), total-start)
	return start, end
}

// HasMore reports whether items exist past this page.
func (p Params) HasMore(total int) bool {
	return p.Offset < total && p.PerPage < total-p.Offset
}

// TotalPages is ceil(total/perPage) with a minimum of 1.
func TotalPages(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	n := total / perPage
	if total%perPage != 0 {
		n++
	}
	return n
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
