// Package search drives a single search-engine results page through a
// headless browser: navigate, scroll until lazily-loaded results converge,
// extract structured records, paginate, dispose.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/serpent/browser"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
)

// State is the lifecycle position of a session.
type State int

const (
	// StateUninitialized: no browser instance exists yet.
	StateUninitialized State = iota

	// StateReady: a browser instance exists, no page is bound.
	StateReady

	// StateSearchActive: a page is bound and has completed at least one
	// navigation plus scroll-convergence pass.
	StateSearchActive
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateSearchActive:
		return "search-active"
	default:
		return "uninitialized"
	}
}

// Searcher is the public session contract, identical across engine kinds.
//
// A Searcher is not safe for concurrent use: callers serialize Search,
// NextPage, Results and Dispose themselves.
type Searcher interface {
	// Init acquires the browser instance. On failure the session stays
	// Uninitialized and Init may be retried.
	Init() error

	// Search opens a page on the engine's results URL for query and runs
	// one scroll-convergence pass. The returned flag reports overall
	// success; hitting the scroll attempt bound is not a failure.
	Search(ctx context.Context, query string) (bool, error)

	// NextPage activates the engine's "load more results" control when
	// present, otherwise re-runs scroll convergence, then returns a fresh
	// extraction of the page.
	NextPage(ctx context.Context) ([]models.SearchResult, error)

	// Results extracts the current DOM state into a SearchQueryResult.
	// Never cached: two calls reflect two snapshots.
	Results(ctx context.Context) (*models.SearchQueryResult, error)

	// Converged reports whether the last convergence pass ended on a
	// confirmed end-of-content signal rather than the attempt bound.
	Converged() bool

	// Dispose releases the browser instance. It never fails observably
	// and tolerates repeated calls.
	Dispose()
}

// browserHandle is the slice of browser.Session the state machine needs.
type browserHandle interface {
	Acquire() error
	Close()
}

// session is the engine-agnostic core shared by all Searcher variants.
// The browser instance and bound page are plain fields, so any number of
// sessions coexist without ambient state.
type session struct {
	kind models.Engine
	prof profile
	cfg  config.SearchConfig

	browser  browserHandle
	openPage func() (Page, error)
	sleeper  Sleeper

	state     State
	page      Page
	query     string
	converged bool
}

// newSession wires a session core to a dedicated browser.Session.
func newSession(kind models.Engine, prof profile, cfg *config.Config) *session {
	b := browser.NewSession(cfg.Browser)
	s := &session{
		kind:    kind,
		prof:    prof,
		cfg:     cfg.Search,
		browser: b,
		sleeper: stdSleeper{},
		state:   StateUninitialized,
	}
	stealth := cfg.Browser.Stealth
	s.openPage = func() (Page, error) {
		p, err := b.NewPage()
		if err != nil {
			return nil, err
		}
		return newRodPage(p, stealth), nil
	}
	return s
}

func (s *session) Init() error {
	if err := s.browser.Acquire(); err != nil {
		return err
	}
	s.state = StateReady
	return nil
}

func (s *session) Search(ctx context.Context, query string) (bool, error) {
	if s.state == StateUninitialized {
		return false, models.NewSearchError(
			models.ErrCodeNotInitialized, "search called before init", nil)
	}
	if strings.TrimSpace(query) == "" {
		return false, models.NewSearchError(
			models.ErrCodeInvalidQuery, "query is empty or whitespace-only", nil)
	}

	page, err := s.openPage()
	if err != nil {
		s.state = StateReady
		return false, err
	}
	// Replaces any previous page handle; the old tab dies with the
	// browser in Dispose, it is never closed individually.
	s.page = page

	target := s.prof.searchURL(query)
	if err := page.Navigate(ctx, target); err != nil {
		s.state = StateReady
		return false, models.NewSearchError(
			models.ErrCodeNavigation, "navigation to results URL failed", err)
	}

	// Fixed settle delay before the first scroll, debouncing render latency.
	if err := s.sleeper.Sleep(ctx, s.cfg.SettleDelay); err != nil {
		s.state = StateReady
		return false, models.NewSearchError(
			models.ErrCodeTimeout, "search canceled during settle", err)
	}

	outcome, err := s.runConvergence(ctx)
	if err != nil {
		s.state = StateReady
		return false, err
	}

	slog.Debug("search converged",
		"engine", s.kind, "query", query, "outcome", outcome.String())

	s.query = query
	s.state = StateSearchActive
	return true, nil
}

func (s *session) NextPage(ctx context.Context) ([]models.SearchResult, error) {
	if s.state != StateSearchActive {
		return nil, notOnSearchPage()
	}

	clicked, err := s.page.ClickFirst(ctx, s.prof.moreSelector)
	if err != nil {
		return nil, models.NewSearchError(
			models.ErrCodeNavigation, "activating more-results control failed", err)
	}

	if clicked {
		if err := s.sleeper.Sleep(ctx, s.cfg.SettleDelay); err != nil {
			return nil, models.NewSearchError(
				models.ErrCodeTimeout, "next page canceled during settle", err)
		}
	} else {
		// No control on the page: treat as "possibly more content below
		// the fold" and rerun the scroll pass rather than conclude done.
		if _, err := s.runConvergence(ctx); err != nil {
			return nil, err
		}
	}

	return s.extract(ctx)
}

func (s *session) Results(ctx context.Context) (*models.SearchQueryResult, error) {
	if s.state != StateSearchActive {
		return nil, notOnSearchPage()
	}

	records, err := s.extract(ctx)
	if err != nil {
		return nil, err
	}
	return &models.SearchQueryResult{
		Query:   s.query,
		Engine:  s.kind,
		Results: records,
	}, nil
}

func (s *session) Converged() bool {
	return s.converged
}

func (s *session) Dispose() {
	s.browser.Close()
	s.page = nil
	s.query = ""
	s.state = StateUninitialized
}

// runConvergence executes one detector pass and records whether it ended
// on a terminal signal or the attempt bound.
func (s *session) runConvergence(ctx context.Context) (Outcome, error) {
	d := newDetector(s.page, s.prof, s.cfg, s.sleeper)
	outcome, err := d.run(ctx)
	if err != nil {
		return outcome, err
	}
	s.converged = outcome != OutcomeBudget
	return outcome, nil
}

// extract snapshots the page and scrapes result records from it.
func (s *session) extract(ctx context.Context) ([]models.SearchResult, error) {
	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, models.NewSearchError(
			models.ErrCodeExtraction, "failed to snapshot result page", err)
	}
	return extractResults(html, s.prof.resultSelector)
}

func notOnSearchPage() *models.SearchError {
	return models.NewSearchError(
		models.ErrCodeNotOnSearchPage, "no active search page", nil)
}
