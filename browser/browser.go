// Package browser wraps the acquisition and release of a single Rod
// browser instance on behalf of one search session.
package browser

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
)

// Session owns exactly one browser-engine instance. Acquire launches it,
// Close kills it; a Session is never shared between search sessions.
type Session struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
}

// NewSession creates an unlaunched Session. No browser process exists
// until Acquire succeeds.
func NewSession(cfg config.BrowserConfig) *Session {
	return &Session{cfg: cfg}
}

// Acquire launches a headless browser and connects to it. On failure it
// returns LAUNCH_FAILURE and leaves the Session without an instance, so
// the caller may retry.
func (s *Session) Acquire() error {
	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)

	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	if s.cfg.DefaultProxy != "" {
		l = l.Proxy(s.cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return models.NewSearchError(
			models.ErrCodeLaunchFailure,
			"failed to launch browser",
			err,
		)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return models.NewSearchError(
			models.ErrCodeLaunchFailure,
			"failed to connect to browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	s.mu.Lock()
	s.browser = browser
	s.mu.Unlock()
	return nil
}

// Acquired reports whether a browser instance currently exists.
func (s *Session) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// NewPage opens a fresh tab and mounts the resource hijack router on it.
// Pages are replaced, not individually closed, when a session re-searches;
// Close tears them all down with the browser process.
func (s *Session) NewPage() (*rod.Page, error) {
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()
	if browser == nil {
		return nil, models.NewSearchError(
			models.ErrCodeNotInitialized,
			"browser not acquired",
			nil,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewSearchError(
			models.ErrCodeLaunchFailure,
			"failed to open page",
			err,
		)
	}

	setupHijack(page, s.cfg.BlockedResourceTypes)
	return page, nil
}

// Close kills the browser process. Repeated calls are no-ops, and release
// failures are reported, not raised, since Close runs during cleanup
// regardless of prior error state. A closed Session may be re-Acquired.
func (s *Session) Close() {
	s.mu.Lock()
	browser := s.browser
	s.browser = nil
	s.mu.Unlock()

	if browser == nil {
		return
	}
	if err := browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}
