package search

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// Page is the minimal set of operations the session core needs from a
// browser-controlled page. The one production implementation is backed
// by Rod; tests substitute a scripted fake.
type Page interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current DOM snapshot as serialized HTML.
	HTML(ctx context.Context) (string, error)

	// ScrollToBottom moves the viewport to the maximum scroll offset,
	// triggering lazy-load fetches.
	ScrollToBottom(ctx context.Context) error

	// MarkerText returns the text content of the first element matching
	// selector, and whether such an element exists at all.
	MarkerText(ctx context.Context, selector string) (text string, present bool, err error)

	// Exists reports whether any element matches selector.
	Exists(ctx context.Context, selector string) (bool, error)

	// ClickFirst clicks the first element matching selector. The clicked
	// flag is false, with a nil error, when no element matches.
	ClickFirst(ctx context.Context, selector string) (clicked bool, err error)
}

// rodPage adapts a *rod.Page to the Page capability.
type rodPage struct {
	p *rod.Page
}

// newRodPage wraps a freshly opened tab. Stealth JS and the pinned
// Accept-Language header must both be installed before the first
// navigation to take effect; the English locale keeps the engines'
// marker text matching the profile expectations.
func newRodPage(p *rod.Page, useStealth bool) *rodPage {
	if useStealth {
		if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(p)

	return &rodPage{p: p}
}

func (r *rodPage) Navigate(ctx context.Context, url string) error {
	return r.p.Context(ctx).Navigate(url)
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	return r.p.Context(ctx).HTML()
}

func (r *rodPage) ScrollToBottom(ctx context.Context) error {
	_, err := r.p.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (r *rodPage) MarkerText(ctx context.Context, selector string) (string, bool, error) {
	res, err := r.p.Context(ctx).Eval(`(sel) => {
		const el = document.querySelector(sel);
		return el === null ? null : el.textContent;
	}`, selector)
	if err != nil {
		return "", false, err
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

func (r *rodPage) Exists(ctx context.Context, selector string) (bool, error) {
	res, err := r.p.Context(ctx).Eval(`(sel) => document.querySelector(sel) !== null`, selector)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (r *rodPage) ClickFirst(ctx context.Context, selector string) (bool, error) {
	p := r.p.Context(ctx)
	has, el, err := p.Has(selector)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}
	return true, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
