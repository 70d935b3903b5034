package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
)

// markerState is one scripted MarkerText answer.
type markerState struct {
	text    string
	present bool
}

// fakePage is a scripted Page: each DOM read pops the next scripted
// answer, repeating the last one when the script runs out.
type fakePage struct {
	navigated []string
	navErr    error

	htmls   []string
	htmlIdx int
	htmlErr error

	scrolls   int
	scrollErr error

	markers   []markerState
	markerIdx int
	markerErr error

	pagination    bool
	paginationErr error

	clickResult bool
	clickErr    error
	clicks      int
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakePage) HTML(ctx context.Context) (string, error) {
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	if len(f.htmls) == 0 {
		return "<html><body></body></html>", nil
	}
	h := f.htmls[f.htmlIdx]
	if f.htmlIdx < len(f.htmls)-1 {
		f.htmlIdx++
	}
	return h, nil
}

func (f *fakePage) ScrollToBottom(ctx context.Context) error {
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	return nil
}

func (f *fakePage) MarkerText(ctx context.Context, selector string) (string, bool, error) {
	if f.markerErr != nil {
		return "", false, f.markerErr
	}
	if len(f.markers) == 0 {
		return "", false, nil
	}
	m := f.markers[f.markerIdx]
	if f.markerIdx < len(f.markers)-1 {
		f.markerIdx++
	}
	return m.text, m.present, nil
}

func (f *fakePage) Exists(ctx context.Context, selector string) (bool, error) {
	if f.paginationErr != nil {
		return false, f.paginationErr
	}
	return f.pagination, nil
}

func (f *fakePage) ClickFirst(ctx context.Context, selector string) (bool, error) {
	if f.clickErr != nil {
		return false, f.clickErr
	}
	f.clicks++
	return f.clickResult, nil
}

// instantSleeper returns immediately, counting the waits it absorbed.
type instantSleeper struct {
	slept int
}

func (s *instantSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.slept++
	return nil
}

// canceledSleeper simulates context cancellation during a timed wait.
type canceledSleeper struct{}

func (canceledSleeper) Sleep(ctx context.Context, d time.Duration) error {
	return context.Canceled
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		SettleDelay:     time.Millisecond,
		PollInterval:    time.Millisecond,
		ScrollLimit:     4,
		PlateauDistance: 3,
	}
}

func newTestDetector(page Page, sleeper Sleeper) *detector {
	return newDetector(page, googleProfile, testSearchConfig(), sleeper)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var se *models.SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *models.SearchError, got %T: %v", err, err)
	}
	return se.Code
}

func TestConvergence_MarkerAbsentStopsImmediately(t *testing.T) {
	page := &fakePage{
		markers: []markerState{{present: false}},
	}
	sleeper := &instantSleeper{}

	outcome, err := newTestDetector(page, sleeper).run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePlateaued {
		t.Errorf("outcome = %s, want plateaued", outcome)
	}
	if page.scrolls != 1 {
		t.Errorf("scrolls = %d, want 1 (initial scroll only)", page.scrolls)
	}
	if sleeper.slept != 0 {
		t.Errorf("slept %d times, want 0", sleeper.slept)
	}
}

func TestConvergence_PersistentMarkerHitsBound(t *testing.T) {
	page := &fakePage{
		markers: []markerState{{text: "More results", present: true}},
	}
	sleeper := &instantSleeper{}

	outcome, err := newTestDetector(page, sleeper).run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeBudget {
		t.Errorf("outcome = %s, want budget", outcome)
	}

	limit := testSearchConfig().ScrollLimit
	if page.scrolls != limit+1 {
		t.Errorf("scrolls = %d, want %d (initial + one per cycle)", page.scrolls, limit+1)
	}
	if sleeper.slept != limit {
		t.Errorf("slept %d times, want %d", sleeper.slept, limit)
	}
}

func TestConvergence_PaginationTableMeansPaginated(t *testing.T) {
	page := &fakePage{
		markers:    []markerState{{text: "More results", present: true}},
		pagination: true,
	}

	outcome, err := newTestDetector(page, &instantSleeper{}).run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePaginated {
		t.Errorf("outcome = %s, want paginated", outcome)
	}
}

func TestConvergence_AmbiguousMarkerUnchangedDOMPlateaus(t *testing.T) {
	// Blank marker text: the detector falls back to comparing DOM
	// fingerprints. The snapshot never changes, so the second cycle
	// must conclude the page plateaued.
	page := &fakePage{
		markers: []markerState{{text: "  ", present: true}},
		htmls:   []string{`<html><body><div><a href="/a">one</a></div></body></html>`},
	}
	sleeper := &instantSleeper{}

	outcome, err := newTestDetector(page, sleeper).run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePlateaued {
		t.Errorf("outcome = %s, want plateaued", outcome)
	}
	if sleeper.slept != 1 {
		t.Errorf("slept %d times, want 1 (plateau detected on second inspection)", sleeper.slept)
	}
}

func TestConvergence_AmbiguousMarkerGrowingDOMKeepsPolling(t *testing.T) {
	// Each snapshot has a structurally disjoint tag sequence, so no two
	// consecutive fingerprints land within the plateau distance.
	page := &fakePage{
		markers: []markerState{{text: "", present: true}},
		htmls: []string{
			`<html><body><div><a href="/a">one</a></div></body></html>`,
			`<html><body><div><a href="/a">one</a></div>` +
				`<div><a href="/b">two</a><p>snippet</p><span>site</span></div>` +
				`<div><a href="/c">three</a><p>snippet</p><span>site</span></div></body></html>`,
			`<html><body><table><tbody><tr><td>a</td><td>b</td></tr>` +
				`<tr><td>c</td><td>d</td></tr><tr><td>e</td><td>f</td></tr></tbody></table></body></html>`,
			`<html><body><form><fieldset><legend>l</legend><ul><li><input/></li>` +
				`<li><select><option>o</option></select></li></ul></fieldset></form></body></html>`,
		},
	}

	outcome, err := newTestDetector(page, &instantSleeper{}).run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeBudget {
		t.Errorf("outcome = %s, want budget (DOM kept changing)", outcome)
	}
}

func TestConvergence_ScrollErrorAborts(t *testing.T) {
	page := &fakePage{scrollErr: errors.New("page crashed")}

	_, err := newTestDetector(page, &instantSleeper{}).run(context.Background())
	if err == nil {
		t.Fatal("expected error when scrolling fails")
	}
	if code := errCode(t, err); code != models.ErrCodeNavigation {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNavigation)
	}
}

func TestConvergence_MarkerReadErrorAborts(t *testing.T) {
	page := &fakePage{markerErr: errors.New("evaluation failed")}

	_, err := newTestDetector(page, &instantSleeper{}).run(context.Background())
	if err == nil {
		t.Fatal("expected error when marker read fails")
	}
	if code := errCode(t, err); code != models.ErrCodeNavigation {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeNavigation)
	}
}

func TestConvergence_CancellationDuringWait(t *testing.T) {
	page := &fakePage{
		markers: []markerState{{text: "More results", present: true}},
	}

	_, err := newTestDetector(page, canceledSleeper{}).run(context.Background())
	if err == nil {
		t.Fatal("expected error when the wait is canceled")
	}
	if code := errCode(t, err); code != models.ErrCodeTimeout {
		t.Errorf("error code = %s, want %s", code, models.ErrCodeTimeout)
	}
}
