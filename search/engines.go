package search

import (
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
)

// GoogleSession scrapes google.com result pages.
type GoogleSession struct {
	*session
}

// NewGoogleSession creates an unstarted Google session.
func NewGoogleSession(cfg *config.Config) *GoogleSession {
	return &GoogleSession{newSession(models.EngineGoogle, googleProfile, cfg)}
}

// BingSession scrapes bing.com result pages.
type BingSession struct {
	*session
}

// NewBingSession creates an unstarted Bing session.
func NewBingSession(cfg *config.Config) *BingSession {
	return &BingSession{newSession(models.EngineBing, bingProfile, cfg)}
}

// DuckDuckGoSession scrapes duckduckgo.com result pages.
type DuckDuckGoSession struct {
	*session
}

// NewDuckDuckGoSession creates an unstarted DuckDuckGo session.
func NewDuckDuckGoSession(cfg *config.Config) *DuckDuckGoSession {
	return &DuckDuckGoSession{newSession(models.EngineDuckDuckGo, duckduckgoProfile, cfg)}
}

// New returns the Searcher variant for the given engine kind.
func New(kind models.Engine, cfg *config.Config) (Searcher, error) {
	switch kind {
	case models.EngineGoogle:
		return NewGoogleSession(cfg), nil
	case models.EngineBing:
		return NewBingSession(cfg), nil
	case models.EngineDuckDuckGo:
		return NewDuckDuckGoSession(cfg), nil
	}
	return nil, models.NewSearchError(
		models.ErrCodeInvalidInput, "unsupported search engine: "+string(kind), nil)
}
