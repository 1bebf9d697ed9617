// Package pagination implements page-number pagination for list endpoints.
//
// A list response is wrapped in an envelope:
//
//	{"count": 23, "next": "http://host/snippets/?page=3", "previous": "http://host/snippets/", "results": [...]}
//
// Pages are numbered from 1. Page 1 of an empty collection is valid; any other
// page past the end, or a page that isn't a positive integer, is "not found".
package pagination

import (
	"net/url"
	"strconv"

	"github.com/sakif/snippets-api/internal/apperror"
)

// DefaultSize is the number of results per page unless configured otherwise.
const DefaultSize = 10

// QueryParam is the query-string parameter that selects a page.
const QueryParam = "page"

// Params selects one page of a list.
type Params struct {
	Page int
	Size int
}

// Parse reads a page number from the raw query value. An empty value means page 1.
func Parse(raw string, size int) (Params, error) {
	if size < 1 {
		size = DefaultSize
	}
	if raw == "" {
		return Params{Page: 1, Size: size}, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return Params{}, invalidPage()
	}
	return Params{Page: page, Size: size}, nil
}

// Offset is the number of rows to skip before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// LastPage is the highest valid page number for a collection of count rows.
func (p Params) LastPage(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + p.Size - 1) / p.Size
}

// Check returns a not-found error when the page lies past the end of the collection.
func (p Params) Check(count int) error {
	if p.Page > p.LastPage(count) {
		return invalidPage()
	}
	return nil
}

// Page is the list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// New builds the envelope for one page. base is the absolute URL of the
// current request; next and previous links keep its other query parameters.
func New[T any](base *url.URL, p Params, count int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}

	if p.Page < p.LastPage(count) {
		next := withPage(base, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		prev := withPage(base, p.Page-1)
		page.Previous = &prev
	}
	return page
}

// withPage returns base with the page parameter set to n. Page 1 drops the
// parameter entirely so the first page has one canonical URL.
func withPage(base *url.URL, n int) string {
	u := *base
	q := u.Query()
	if n <= 1 {
		q.Del(QueryParam)
	} else {
		q.Set(QueryParam, strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func invalidPage() *apperror.AppError {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: "Invalid page.",
	}
}
