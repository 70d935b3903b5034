package search

import (
	"net/url"

	"github.com/use-agent/serpent/models"
)

// profile parameterizes the shared session core with everything that
// varies per engine kind: the results URL and the DOM selectors driving
// extraction and scroll convergence.
//
// The marker and pagination selectors are heuristics scraped from
// human-facing markup; they can drift with engine redesigns and differ
// by locale, which is why the session pins Accept-Language to English.
type profile struct {
	kind models.Engine

	// searchURL builds the engine's results URL for a raw query.
	searchURL func(query string) string

	// resultSelector matches the result anchor elements to extract.
	resultSelector string

	// markerSelector matches the "more results" marker whose text
	// signals further lazy-loaded content.
	markerSelector string

	// moreSelector matches the clickable "load more results" control.
	moreSelector string

	// paginationSelector matches the classic numbered-pagination block
	// shown when the engine abandons infinite scroll.
	paginationSelector string
}

var googleProfile = profile{
	kind: models.EngineGoogle,
	searchURL: func(query string) string {
		return "https://www.google.com/search?" + url.Values{"q": {query}}.Encode()
	},
	resultSelector:     `a[jsname="UWckNb"]`,
	markerSelector:     `a[aria-label="More results"] span`,
	moreSelector:       `a[aria-label="More results"]`,
	paginationSelector: `table.AaVjTc`,
}

var bingProfile = profile{
	kind: models.EngineBing,
	searchURL: func(query string) string {
		return "https://www.bing.com/search?" + url.Values{"q": {query}}.Encode()
	},
	resultSelector:     `li.b_algo h2 a`,
	markerSelector:     `a.sb_pagN`,
	moreSelector:       `a.sb_pagN`,
	paginationSelector: `li.b_pag nav`,
}

var duckduckgoProfile = profile{
	kind: models.EngineDuckDuckGo,
	searchURL: func(query string) string {
		return "https://duckduckgo.com/?" + url.Values{"q": {query}}.Encode()
	},
	resultSelector:     `a[data-testid="result-title-a"]`,
	markerSelector:     `#more-results`,
	moreSelector:       `#more-results`,
	paginationSelector: `div.nav-link`,
}

// profileFor returns the profile bound to an engine kind.
func profileFor(kind models.Engine) (profile, bool) {
	switch kind {
	case models.EngineGoogle:
		return googleProfile, true
	case models.EngineBing:
		return bingProfile, true
	case models.EngineDuckDuckGo:
		return duckduckgoProfile, true
	}
	return profile{}, false
}
