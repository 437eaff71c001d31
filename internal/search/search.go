// Package search fetches baseline marketplace listings for a query.
package search

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultLatitude and DefaultLongitude center searches on Barcelona.
	DefaultLatitude  = 41.387917
	DefaultLongitude = 2.1699187
)

// ErrUpstream is returned (wrapped) for any failure of the search backend.
var ErrUpstream = errors.New("upstream search failed")

// Listing is one search hit in the order the backend returned it.
type Listing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Searcher returns listings for a query near a location.
type Searcher interface {
	Search(ctx context.Context, query string, latitude, longitude float64) ([]Listing, error)
}

// StatusError reports a non-2xx response from the search backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}
