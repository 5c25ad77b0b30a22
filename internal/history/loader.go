package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/logging"
	"github.com/chris/worklog/pkg/models"
)

// WeekSource reads one week's entries and summary
type WeekSource interface {
	EntriesForWeek(ctx context.Context, isoYear, week int) ([]models.Entry, error)
	SummaryForWeek(ctx context.Context, isoYear, week int) (*models.Summary, error)
}

// LoadRecorder observes per-week load outcomes, e.g. for metrics
type LoadRecorder interface {
	ObserveWeekLoad(ok bool)
}

// WeekFailure records a week that could not be fetched. The week is left
// out of the page; the walk continues past it.
type WeekFailure struct {
	Week calendar.Week
	Err  error
}

func (f WeekFailure) Error() string {
	return fmt.Sprintf("load week %s: %v", f.Week.Key(), f.Err)
}

func (f WeekFailure) Unwrap() error { return f.Err }

// Page is the result of one backward walk
type Page struct {
	Weeks    []RawWeek // newest first
	Failures []WeekFailure
	HasMore  bool

	// Last is the earliest week walked, fetched or not. The next page
	// starts at Last.Prev().
	Last calendar.Week
}

// AllFailed reports whether every walked week failed
func (p Page) AllFailed() bool {
	return len(p.Weeks) == 0 && len(p.Failures) > 0
}

// Loader walks the calendar backwards one ISO week at a time
type Loader struct {
	source   WeekSource
	recorder LoadRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLoaderNow sets the clock that picks the starting week
func WithLoaderNow(fn func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = fn }
}

// WithLoaderLogger sets the logger
func WithLoaderLogger(lg *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logging.OrNop(lg) }
}

// WithLoadRecorder reports every fetched or failed week to r
func WithLoadRecorder(r LoadRecorder) LoaderOption {
	return func(l *Loader) { l.recorder = r }
}

// NewLoader creates a Loader over source
func NewLoader(source WeekSource, opts ...LoaderOption) (*Loader, error) {
	if source == nil {
		return nil, ErrMissingCollaborator
	}
	l := &Loader{
		source: source,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadWeeks walks count weeks backwards starting at from (inclusive), or at
// the current week when from is nil. HasMore reports whether the week
// before the last walked week has any entries; it is a one-week lookahead,
// so a gap week ends pagination.
func (l *Loader) LoadWeeks(ctx context.Context, from *calendar.Week, count int) Page {
	start := calendar.WeekOf(l.now())
	if from != nil {
		start = *from
	}

	var page Page
	if count < 1 {
		page.Last = start.Next()
		return page
	}

	w := start
	for i := 0; i < count; i++ {
		if i > 0 {
			w = w.Prev()
		}
		raw, err := l.FetchWeek(ctx, w)
		l.observe(err == nil)
		if err != nil {
			l.logger.Warn("week load failed", zap.String("week", w.Key()), zap.Error(err))
			page.Failures = append(page.Failures, WeekFailure{Week: w, Err: err})
			continue
		}
		page.Weeks = append(page.Weeks, raw)
	}
	page.Last = w
	page.HasMore = l.hasEntries(ctx, w.Prev())

	l.logger.Debug("weeks loaded",
		zap.String("from", start.Key()),
		zap.String("to", w.Key()),
		zap.Int("loaded", len(page.Weeks)),
		zap.Int("failed", len(page.Failures)),
		zap.Bool("has_more", page.HasMore))

	return page
}

// FetchWeek reads one week's entries and summary in parallel
func (l *Loader) FetchWeek(ctx context.Context, w calendar.Week) (RawWeek, error) {
	start, end := w.Range()
	raw := RawWeek{Week: w, Start: start, End: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := l.source.EntriesForWeek(gctx, w.Year, w.Number)
		if err != nil {
			return fmt.Errorf("entries: %w", err)
		}
		raw.Entries = entries
		return nil
	})
	g.Go(func() error {
		summary, err := l.source.SummaryForWeek(gctx, w.Year, w.Number)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		raw.Summary = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return RawWeek{}, err
	}
	return raw, nil
}

// hasEntries probes one week. A failed probe counts as no entries.
func (l *Loader) hasEntries(ctx context.Context, w calendar.Week) bool {
	entries, err := l.source.EntriesForWeek(ctx, w.Year, w.Number)
	if err != nil {
		l.logger.Warn("lookahead probe failed", zap.String("week", w.Key()), zap.Error(err))
		return false
	}
	return len(entries) > 0
}

func (l *Loader) observe(ok bool) {
	if l.recorder != nil {
		l.recorder.ObserveWeekLoad(ok)
	}
}
