package models

// FetchRequest is the payload for POST /api/v1/fetch. It retrieves one
// result URL picked from a prior search and returns its readable content.
type FetchRequest struct {
	// URL is the page to fetch. Required.
	URL string `json:"url" binding:"required,url"`

	// OutputFormat controls the content field format.
	// Allowed: "markdown" (default), "html", "text".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=markdown html text"`

	// CSSSelector optionally narrows the page to matching elements
	// before readability runs.
	CSSSelector string `json:"css_selector,omitempty"`

	// Timeout is the maximum duration in seconds for the whole fetch.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// Defaults applies default values to unset fields.
func (r *FetchRequest) Defaults() {
	if r.OutputFormat == "" {
		r.OutputFormat = "markdown"
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// FetchResponse is the response for POST /api/v1/fetch.
type FetchResponse struct {
	Success bool `json:"success"`

	// StatusCode is the HTTP status code from the fetched page.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url,omitempty"`

	// Content is the cleaned output in the requested format.
	Content string `json:"content,omitempty"`

	// Title is the page title (readability first, document.title fallback).
	Title string `json:"title,omitempty"`

	// FetcherUsed names the fetcher that produced the result ("http" or "browser").
	FetcherUsed string `json:"fetcher_used,omitempty"`

	// Tokens estimates the token count of the cleaned content.
	Tokens int `json:"tokens,omitempty"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}
