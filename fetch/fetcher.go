// Package fetch retrieves the content of result URLs picked from a
// search, racing a fast TLS-fingerprinted HTTP client against a headless
// browser with staged escalation.
package fetch

import (
	"context"
	"time"
)

// Fetcher is the interface every fetch tier implements.
type Fetcher interface {
	// Name returns the tier identifier (e.g. "http", "browser").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *Request) (*Result, error)
}

// Request contains everything a fetcher needs to retrieve a page.
type Request struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Result is the output of a successful fetch.
type Result struct {
	HTML        string
	Title       string
	StatusCode  int
	FinalURL    string
	FetcherName string
}
