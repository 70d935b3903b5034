package search

import (
	"context"
	"strings"
	"time"

	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
	"github.com/use-agent/serpent/simhash"
)

// Outcome classifies how a scroll-convergence pass ended.
type Outcome int

const (
	// OutcomePlateaued means the "more results" marker was confirmed
	// absent, or the DOM stopped changing while the marker was ambiguous:
	// lazily-loaded content is considered fully arrived.
	OutcomePlateaued Outcome = iota

	// OutcomePaginated means the page switched to classic numbered
	// pagination and the attempt bound elapsed.
	OutcomePaginated

	// OutcomeBudget means the attempt bound was exhausted while the
	// marker still promised more content. Results may be incomplete;
	// this is accepted best-effort, not an error.
	OutcomeBudget
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlateaued:
		return "plateaued"
	case OutcomePaginated:
		return "paginated"
	default:
		return "budget"
	}
}

// Sleeper abstracts timed waits so tests can simulate time passing
// without wall-clock delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// stdSleeper waits in real time, honoring context cancellation.
type stdSleeper struct{}

func (stdSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// detector decides when a results page has finished lazily loading,
// by polling a small set of observable DOM signals under a hard bound.
//
// The pages expose no "loading complete" event; convergence is inferred:
//
//   - marker present with non-empty text: more content is expected after
//     a further scroll, keep polling
//   - marker present but blank: ambiguous, keep polling, with a SimHash
//     DOM fingerprint as tiebreaker (two consecutive unchanged
//     fingerprints end the pass early)
//   - marker absent: content plateaued, stop
//   - pagination block present once the bound elapses: the page switched
//     to numbered pagination, stop
//
// Scheduling is check-then-poll: each cycle inspects the DOM first, then
// sleeps and re-scrolls. The pass therefore issues at most scrollLimit
// DOM inspections after the initial scroll and always terminates.
type detector struct {
	page Page

	markerSelector     string
	paginationSelector string

	interval        time.Duration
	scrollLimit     int
	plateauDistance int

	sleeper Sleeper
}

func newDetector(page Page, prof profile, cfg config.SearchConfig, sleeper Sleeper) *detector {
	return &detector{
		page:               page,
		markerSelector:     prof.markerSelector,
		paginationSelector: prof.paginationSelector,
		interval:           cfg.PollInterval,
		scrollLimit:        cfg.ScrollLimit,
		plateauDistance:    cfg.PlateauDistance,
		sleeper:            sleeper,
	}
}

// run executes one convergence pass. DOM read errors abort the pass:
// the page state is then undetermined and the enclosing search or
// next-page call must fail as a whole.
func (d *detector) run(ctx context.Context) (Outcome, error) {
	if err := d.page.ScrollToBottom(ctx); err != nil {
		return OutcomeBudget, scrollErr(err)
	}

	paginated := false
	var lastFP uint64
	haveFP := false

	for attempt := 0; attempt < d.scrollLimit; attempt++ {
		text, present, err := d.page.MarkerText(ctx, d.markerSelector)
		if err != nil {
			return OutcomeBudget, scrollErr(err)
		}
		if !present {
			return OutcomePlateaued, nil
		}

		if p, err := d.page.Exists(ctx, d.paginationSelector); err != nil {
			return OutcomeBudget, scrollErr(err)
		} else if p {
			paginated = true
		}

		if strings.TrimSpace(text) == "" {
			// Ambiguous marker: fall back to comparing DOM fingerprints
			// across cycles. An unchanged DOM means nothing is loading.
			html, err := d.page.HTML(ctx)
			if err != nil {
				return OutcomeBudget, scrollErr(err)
			}
			fp := simhash.FingerprintDOM(html)
			if haveFP && simhash.Similar(fp, lastFP, d.plateauDistance) {
				return OutcomePlateaued, nil
			}
			lastFP, haveFP = fp, true
		} else {
			haveFP = false
		}

		if err := d.sleeper.Sleep(ctx, d.interval); err != nil {
			return OutcomeBudget, models.NewSearchError(
				models.ErrCodeTimeout, "convergence pass canceled", err)
		}
		if err := d.page.ScrollToBottom(ctx); err != nil {
			return OutcomeBudget, scrollErr(err)
		}
	}

	if paginated {
		return OutcomePaginated, nil
	}
	return OutcomeBudget, nil
}

func scrollErr(err error) *models.SearchError {
	return models.NewSearchError(
		models.ErrCodeNavigation, "scroll convergence aborted", err)
}
