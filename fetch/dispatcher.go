package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher coordinates the fetch tiers with staged escalation: the
// fast tier starts immediately, heavier tiers join the race after their
// escalation delay if nothing has won yet.
type Dispatcher struct {
	fetchers         []Fetcher
	escalationDelays []time.Duration
	memory           *HostMemory
}

// NewDispatcher creates a Dispatcher. fetchers[i] starts after
// escalationDelays[i] from the race beginning; the first delay should be 0.
func NewDispatcher(fetchers []Fetcher, escalationDelays []time.Duration, memory *HostMemory) *Dispatcher {
	delays := make([]time.Duration, len(fetchers))
	copy(delays, escalationDelays)
	return &Dispatcher{
		fetchers:         fetchers,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Dispatch runs the race for the given request and returns the first
// successful result. If every tier fails, the last error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	host := extractHost(req.URL)

	// A host that already succeeded with some tier skips the race.
	if remembered := d.memory.Get(host); remembered != "" {
		for _, f := range d.fetchers {
			if f.Name() == remembered {
				slog.Debug("host memory hit", "host", host, "fetcher", remembered)
				result, err := f.Fetch(ctx, req)
				if err == nil {
					return result, nil
				}
				slog.Info("remembered fetcher failed, running full race",
					"host", host, "fetcher", remembered, "error", err)
				d.memory.Delete(host)
				break
			}
		}
	}

	return d.race(ctx, req, host)
}

func (d *Dispatcher) race(ctx context.Context, req *Request, host string) (*Result, error) {
	type raceResult struct {
		result *Result
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.fetchers))
	var wg sync.WaitGroup

	for i, f := range d.fetchers {
		delay := d.escalationDelays[i]
		wg.Add(1)
		go func(f Fetcher, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}

			select {
			case <-raceCtx.Done():
				return
			default:
			}

			slog.Debug("fetcher starting", "fetcher", f.Name(), "url", req.URL)
			result, err := f.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("fetcher failed", "fetcher", f.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(f, delay)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		// First success wins; cancel the rest.
		raceCancel()
		slog.Info("fetcher won race", "fetcher", rr.result.FetcherName, "url", req.URL)
		d.memory.Set(host, rr.result.FetcherName)
		return rr.result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all fetchers failed for %s", req.URL)
	}
	return nil, lastErr
}

// extractHost parses the hostname from a URL string.
func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
