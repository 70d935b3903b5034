package search

import (
	"context"
	"errors"
	"testing"

	"github.com/use-agent/serpent/models"
)

// fakeBrowser stands in for browser.Session in lifecycle tests.
type fakeBrowser struct {
	acquireErr error
	acquired   int
	closed     int
}

func (b *fakeBrowser) Acquire() error {
	if b.acquireErr != nil {
		return b.acquireErr
	}
	b.acquired++
	return nil
}

func (b *fakeBrowser) Close() { b.closed++ }

// resultsPage is a scripted results page carrying three plausible
// anchor records, with the marker already absent so convergence ends
// on the first inspection.
func resultsPage() *fakePage {
	return &fakePage{
		markers: []markerState{{present: false}},
		htmls: []string{`<html><body>
			<div class="r"><a jsname="UWckNb" href="https://example.com/docs">Documentation | Example</a>
				<span>Official docs for the example project.</span></div>
			<div class="r"><a jsname="UWckNb" href="https://example.com/blog">Blog | Example</a>
				<span>News and articles.</span></div>
			<div class="r"><a jsname="UWckNb" href="https://example.com/about">About us</a></div>
		</body></html>`},
	}
}

func newTestSession(page *fakePage, b *fakeBrowser) *session {
	s := &session{
		kind:    models.EngineGoogle,
		prof:    googleProfile,
		cfg:     testSearchConfig(),
		browser: b,
		sleeper: &instantSleeper{},
		state:   StateUninitialized,
	}
	s.openPage = func() (Page, error) { return page, nil }
	return s
}

func TestSession_SearchBeforeInit(t *testing.T) {
	s := newTestSession(resultsPage(), &fakeBrowser{})

	ok, err := s.Search(context.Background(), "site:example.com")
	if ok {
		t.Error("search before init reported success")
	}
	if code := errCode(t, err); code != models.ErrCodeNotInitialized {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNotInitialized)
	}
	if s.state != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", s.state)
	}
}

func TestSession_BlankQueryRejected(t *testing.T) {
	for _, query := range []string{"", "   ", "\t\n"} {
		s := newTestSession(resultsPage(), &fakeBrowser{})
		if err := s.Init(); err != nil {
			t.Fatalf("init failed: %v", err)
		}

		ok, err := s.Search(context.Background(), query)
		if ok {
			t.Errorf("blank query %q reported success", query)
		}
		if code := errCode(t, err); code != models.ErrCodeInvalidQuery {
			t.Errorf("query %q: error code = %s, want %s", query, code, models.ErrCodeInvalidQuery)
		}
		// A rejected query must leave the session usable.
		if s.state != StateReady {
			t.Errorf("query %q: state = %s, want ready", query, s.state)
		}
	}
}

func TestSession_SearchThenResults(t *testing.T) {
	page := resultsPage()
	s := newTestSession(page, &fakeBrowser{})
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ok, err := s.Search(context.Background(), "site:example.com")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !ok {
		t.Error("search reported failure")
	}
	if s.state != StateSearchActive {
		t.Errorf("state = %s, want search-active", s.state)
	}
	if len(page.navigated) != 1 {
		t.Fatalf("navigated %d times, want 1", len(page.navigated))
	}
	if want := "https://www.google.com/search?q=site%3Aexample.com"; page.navigated[0] != want {
		t.Errorf("navigated to %q, want %q", page.navigated[0], want)
	}
	if !s.Converged() {
		t.Error("plateaued pass should report converged")
	}

	result, err := s.Results(context.Background())
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if result.Query != "site:example.com" {
		t.Errorf("result query = %q, want %q", result.Query, "site:example.com")
	}
	if result.Engine != models.EngineGoogle {
		t.Errorf("result engine = %q, want google", result.Engine)
	}
	if len(result.Results) != 3 {
		t.Fatalf("got %d records, want 3", len(result.Results))
	}
	if result.Results[0].URL != "https://example.com/docs" {
		t.Errorf("first URL = %q", result.Results[0].URL)
	}
	if result.Results[2].Description != "" {
		t.Errorf("record without snippet got description %q", result.Results[2].Description)
	}
}

func TestSession_ResultsWithoutActiveSearch(t *testing.T) {
	s := newTestSession(resultsPage(), &fakeBrowser{})

	// Uninitialized.
	if _, err := s.Results(context.Background()); err == nil {
		t.Error("results on uninitialized session should fail")
	} else if code := errCode(t, err); code != models.ErrCodeNotOnSearchPage {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNotOnSearchPage)
	}

	// Ready but never searched.
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := s.Results(context.Background()); err == nil {
		t.Error("results before any search should fail")
	} else if code := errCode(t, err); code != models.ErrCodeNotOnSearchPage {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNotOnSearchPage)
	}
}

func TestSession_NavigationFailureReturnsToReady(t *testing.T) {
	page := resultsPage()
	page.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	s := newTestSession(page, &fakeBrowser{})
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	_, err := s.Search(context.Background(), "anything")
	if code := errCode(t, err); code != models.ErrCodeNavigation {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNavigation)
	}
	if s.state != StateReady {
		t.Errorf("state = %s, want ready after failed navigation", s.state)
	}
}

func TestSession_InitFailureStaysUninitialized(t *testing.T) {
	b := &fakeBrowser{acquireErr: models.NewSearchError(
		models.ErrCodeLaunchFailure, "no chromium binary", nil)}
	s := newTestSession(resultsPage(), b)

	if err := s.Init(); err == nil {
		t.Fatal("expected init to fail")
	}
	if s.state != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", s.state)
	}

	// A later retry may succeed.
	b.acquireErr = nil
	if err := s.Init(); err != nil {
		t.Fatalf("retried init failed: %v", err)
	}
	if s.state != StateReady {
		t.Errorf("state = %s, want ready", s.state)
	}
}

func TestSession_NextPageClicksMoreControl(t *testing.T) {
	page := resultsPage()
	page.clickResult = true
	s := newTestSession(page, &fakeBrowser{})
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := s.Search(context.Background(), "site:example.com"); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	records, err := s.NextPage(context.Background())
	if err != nil {
		t.Fatalf("next page failed: %v", err)
	}
	if page.clicks != 1 {
		t.Errorf("clicked %d times, want 1", page.clicks)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}

func TestSession_NextPageFallsBackToScroll(t *testing.T) {
	page := resultsPage()
	page.clickResult = false
	s := newTestSession(page, &fakeBrowser{})
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := s.Search(context.Background(), "site:example.com"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	scrollsAfterSearch := page.scrolls

	if _, err := s.NextPage(context.Background()); err != nil {
		t.Fatalf("next page failed: %v", err)
	}
	if page.scrolls <= scrollsAfterSearch {
		t.Error("missing more-results control should trigger another scroll pass")
	}
}

func TestSession_NextPageRequiresActiveSearch(t *testing.T) {
	s := newTestSession(resultsPage(), &fakeBrowser{})
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	_, err := s.NextPage(context.Background())
	if code := errCode(t, err); code != models.ErrCodeNotOnSearchPage {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNotOnSearchPage)
	}
}

func TestSession_DisposeIsIdempotent(t *testing.T) {
	b := &fakeBrowser{}
	s := newTestSession(resultsPage(), b)
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := s.Search(context.Background(), "site:example.com"); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	s.Dispose()
	s.Dispose()
	s.Dispose()

	if s.state != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", s.state)
	}
	if b.closed != 3 {
		t.Errorf("browser Close called %d times, want 3 (every call delegates)", b.closed)
	}

	// Disposed sessions reject further work instead of panicking.
	if _, err := s.Results(context.Background()); err == nil {
		t.Error("results after dispose should fail")
	}
}

func TestNew_UnsupportedEngine(t *testing.T) {
	_, err := New(models.Engine("altavista"), nil)
	if err == nil {
		t.Fatal("expected error for unsupported engine")
	}
	if code := errCode(t, err); code != models.ErrCodeInvalidInput {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeInvalidInput)
	}
}
