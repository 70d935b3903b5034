package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/serpent/browser"
	"github.com/use-agent/serpent/config"
)

// BrowserFetcher is the heavyweight tier: it renders the page in a
// headless browser so JS-built content is present in the snapshot.
// The underlying browser is launched lazily on first use and shared by
// all subsequent fetches.
type BrowserFetcher struct {
	mu      sync.Mutex
	session *browser.Session
}

// NewBrowserFetcher creates a BrowserFetcher. No browser process exists
// until the first Fetch.
func NewBrowserFetcher(cfg config.BrowserConfig) *BrowserFetcher {
	return &BrowserFetcher{session: browser.NewSession(cfg)}
}

func (f *BrowserFetcher) Name() string { return "browser" }

func (f *BrowserFetcher) Fetch(ctx context.Context, req *Request) (*Result, error) {
	if err := f.ensureBrowser(); err != nil {
		return nil, fmt.Errorf("browser fetcher: %w", err)
	}

	page, err := f.session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("browser fetcher: open page: %w", err)
	}
	// Fetch tabs are throwaway, unlike search session pages.
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("browser fetcher: navigate: %w", err)
	}
	// Not fatal when the DOM never settles: proceed with whatever rendered.
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser fetcher: extract html: %w", err)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	// Status code via the performance API; no CDP event listeners needed.
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	return &Result{
		HTML:        rawHTML,
		Title:       evalStringOrEmpty(p, `() => document.title`),
		StatusCode:  statusCode,
		FinalURL:    finalURL,
		FetcherName: f.Name(),
	}, nil
}

// Close kills the shared browser, if one was ever launched.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session.Close()
}

func (f *BrowserFetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Acquired() {
		return nil
	}
	return f.session.Acquire()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
