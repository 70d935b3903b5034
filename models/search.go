package models

// Engine identifies which search engine a session is bound to.
// It selects the results URL and the extraction selectors; a session
// never changes engine after construction.
type Engine string

const (
	EngineGoogle     Engine = "google"
	EngineBing       Engine = "bing"
	EngineDuckDuckGo Engine = "duckduckgo"
)

// Valid reports whether e is one of the supported engine kinds.
func (e Engine) Valid() bool {
	switch e {
	case EngineGoogle, EngineBing, EngineDuckDuckGo:
		return true
	}
	return false
}

// SearchResult is one extracted result record, in on-page order.
// Records are not deduplicated: the same anchor may repeat across scroll
// passes when extraction runs against a stale snapshot.
type SearchResult struct {
	// Title is the result anchor's visible text.
	Title string `json:"title"`

	// URL is the anchor's link target, passed through unchanged
	// (relative or malformed hrefs are not validated or resolved).
	URL string `json:"url"`

	// Description is the surrounding snippet text, when the page provides one.
	Description string `json:"description,omitempty"`
}

// SearchQueryResult binds a query to the records extracted from the
// current DOM state. It is produced fresh on every Results call and
// never cached by the session.
type SearchQueryResult struct {
	Query   string         `json:"query"`
	Engine  Engine         `json:"search_engine"`
	Results []SearchResult `json:"results"`
}

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Query is the raw search query. Required, must not be blank.
	Query string `json:"query" binding:"required"`

	// Engine selects the search engine. Default: "google".
	Engine Engine `json:"engine,omitempty" binding:"omitempty,oneof=google bing duckduckgo"`

	// Pages is how many result pages to load: 1 means the initial
	// results only, each extra page triggers one next-page pass.
	// Default: 1. Max: 10.
	Pages int `json:"pages,omitempty" binding:"omitempty,min=1,max=10"`

	// MaxAge enables the response cache: results younger than MaxAge
	// milliseconds are served without opening a browser. 0 disables caching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.Engine == "" {
		r.Engine = EngineGoogle
	}
	if r.Pages == 0 {
		r.Pages = 1
	}
}

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	Success bool `json:"success"`

	// Result holds the extracted records; nil when Success is false.
	Result *SearchQueryResult `json:"result,omitempty"`

	// PagesLoaded is how many next-page passes actually completed.
	PagesLoaded int `json:"pages_loaded,omitempty"`

	// Converged is false when a scroll pass stopped on the attempt bound
	// rather than a confirmed end-of-content signal; results may then be
	// incomplete. Best-effort by design, never an error.
	Converged bool `json:"converged"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs covers browser launch, navigation and scroll convergence.
	NavigationMs int64 `json:"navigation_ms,omitempty"`

	// ExtractionMs covers snapshotting and parsing the result records.
	ExtractionMs int64 `json:"extraction_ms,omitempty"`

	// CleaningMs covers readability and markdown conversion (fetch only).
	CleaningMs int64 `json:"cleaning_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"` // "healthy" or "degraded"
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
	Version        string `json:"version"`
}
