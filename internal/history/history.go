package history

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/logging"
	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

const (
	DefaultPageSize        = 4
	DefaultNotificationTTL = 4 * time.Second
)

var (
	// ErrMissingCollaborator is returned by constructors given a nil collaborator
	ErrMissingCollaborator = errors.New("history: missing collaborator")
	// ErrWeekNotLoaded is returned when an operation names a week that is not visible
	ErrWeekNotLoaded = errors.New("week not loaded")
	// ErrEntryNotLoaded is returned when an operation names an entry that is not visible
	ErrEntryNotLoaded = errors.New("entry not loaded")
	// ErrNotEditing is returned when saving an entry that is not in edit mode
	ErrNotEditing = errors.New("entry not in edit mode")
	// ErrNoPrompt is returned by ConfirmDelete when no delete is pending
	ErrNoPrompt = errors.New("no delete pending")
)

// Store is the journal store as the orchestrator sees it
type Store interface {
	WeekSource
	UpdateEntry(ctx context.Context, id int64, content string) error
	DeleteEntry(ctx context.Context, id int64) error
	UpdateSummary(ctx context.Context, id int64, content string) error
	DeleteSummary(ctx context.Context, id int64) error
}

// Summarizer runs the summary workflow for one week
type Summarizer interface {
	Completed(w calendar.Week) bool
	Generate(ctx context.Context, w calendar.Week) summarize.Result
}

// Pagination is the read-only paging state exposed to the rendering layer
type Pagination struct {
	Loading        bool
	LoadedWeekKeys []string // strictly descending, append-only
	HasMore        bool
	EarliestLoaded *calendar.Week
}

// History owns the visible week collection. The rendering layer reads
// snapshots and calls its operations; it never mutates the collection.
type History struct {
	loader     *Loader
	store      Store
	summarizer Summarizer
	logger     *zap.Logger
	pageSize   int
	ttl        time.Duration
	now        func() time.Time

	mu            sync.Mutex
	weeks         []WeekGroup
	pagination    Pagination
	cursor        *calendar.Week // last walked week
	walked        int
	lastErr       string
	prompt        *DeleteTarget
	notifications []Notification
	timers        map[string]*time.Timer

	// versions counts data changes per week key; a fetch that started
	// before a change must not overwrite it
	versions map[string]uint64
}

// Option configures a History
type Option func(*History)

// WithPageSize sets how many weeks each page walks
func WithPageSize(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithNotificationTTL sets how long each notification stays visible
func WithNotificationTTL(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.ttl = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(h *History) { h.logger = logging.OrNop(l) }
}

// WithNow sets the clock used for notification timestamps
func WithNow(fn func() time.Time) Option {
	return func(h *History) { h.now = fn }
}

// New creates a History. The loader, store and summarizer are required.
func New(loader *Loader, store Store, summarizer Summarizer, opts ...Option) (*History, error) {
	if loader == nil || store == nil || summarizer == nil {
		return nil, ErrMissingCollaborator
	}
	h := &History{
		loader:     loader,
		store:      store,
		summarizer: summarizer,
		logger:     zap.NewNop(),
		pageSize:   DefaultPageSize,
		ttl:        DefaultNotificationTTL,
		now:        time.Now,
		timers:     make(map[string]*time.Timer),
		versions:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Weeks returns a snapshot of the visible weeks, newest first
func (h *History) Weeks() []WeekGroup {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]WeekGroup, len(h.weeks))
	for i, w := range h.weeks {
		out[i] = w.clone()
	}
	return out
}

// Week returns a snapshot of one visible week
func (h *History) Week(key string) (WeekGroup, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w := h.find(key); w != nil {
		return w.clone(), true
	}
	return WeekGroup{}, false
}

// Pagination returns a snapshot of the paging state
func (h *History) Pagination() Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.pagination
	p.LoadedWeekKeys = slices.Clone(p.LoadedWeekKeys)
	if p.EarliestLoaded != nil {
		w := *p.EarliestLoaded
		p.EarliestLoaded = &w
	}
	return p
}

// LastError returns the most recent surfaced error, or ""
func (h *History) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// LoadInitial loads the first page and replaces the collection. On failure
// the previous collection is kept.
func (h *History) LoadInitial(ctx context.Context) error {
	return h.reload(ctx, h.pageSize)
}

// Refresh re-walks as many weeks as have been walked so far, from the
// current week, and replaces the collection
func (h *History) Refresh(ctx context.Context) error {
	h.mu.Lock()
	count := h.walked
	h.mu.Unlock()
	if count < h.pageSize {
		count = h.pageSize
	}
	return h.reload(ctx, count)
}

func (h *History) reload(ctx context.Context, count int) error {
	seen, ok := h.startLoading()
	if !ok {
		return nil
	}
	page := h.loader.LoadWeeks(ctx, nil, count)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pagination.Loading = false

	if page.AllFailed() {
		return h.loadFailedLocked(page)
	}

	fetched := TransformWeeks(page.Weeks)
	weeks := fetched[:0]
	for _, w := range fetched {
		prev := h.find(w.Key)
		if h.versions[w.Key] != seen[w.Key] {
			// Changed while the page was in flight: the current view is newer
			if prev != nil {
				weeks = append(weeks, *prev)
			}
			continue
		}
		if prev != nil {
			carryOver(prev, &w)
		}
		weeks = append(weeks, w)
	}
	reindex(weeks)
	h.weeks = weeks
	h.pagination.LoadedWeekKeys = nil
	h.pagination.EarliestLoaded = nil
	h.recordLoadedLocked(page)
	h.walked = count
	h.lastErr = ""
	h.partialFailureLocked(page)

	h.logger.Info("history loaded",
		zap.Int("weeks", len(h.weeks)),
		zap.Bool("has_more", h.pagination.HasMore))
	return nil
}

// LoadMore appends the next older page. It is a no-op while a load is in
// flight or when no older entries are known.
func (h *History) LoadMore(ctx context.Context) error {
	h.mu.Lock()
	if h.pagination.Loading || !h.pagination.HasMore || h.cursor == nil {
		h.mu.Unlock()
		return nil
	}
	h.pagination.Loading = true
	from := h.cursor.Prev()
	h.mu.Unlock()

	page := h.loader.LoadWeeks(ctx, &from, h.pageSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pagination.Loading = false

	if page.AllFailed() {
		return h.loadFailedLocked(page)
	}

	// Everything in the page is older than what is loaded, so appending
	// keeps the collection sorted
	older := TransformWeeks(page.Weeks)
	h.weeks = append(h.weeks, older...)
	reindex(h.weeks)
	h.recordLoadedLocked(page)
	h.walked += h.pageSize
	h.lastErr = ""
	h.partialFailureLocked(page)

	h.logger.Info("history extended",
		zap.String("from", from.Key()),
		zap.Int("weeks", len(older)),
		zap.Bool("has_more", h.pagination.HasMore))
	return nil
}

// startLoading claims the loading flag and returns the week versions the
// load starts from
func (h *History) startLoading() (map[string]uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pagination.Loading {
		return nil, false
	}
	h.pagination.Loading = true
	return maps.Clone(h.versions), true
}

// touchLocked records a data change to one week
func (h *History) touchLocked(key string) {
	h.versions[key]++
}

// recordLoadedLocked updates the cursor and pagination after a page
func (h *History) recordLoadedLocked(page Page) {
	for _, raw := range page.Weeks {
		w := raw.Week
		if h.pagination.EarliestLoaded != nil && !w.Before(*h.pagination.EarliestLoaded) {
			continue
		}
		h.pagination.LoadedWeekKeys = append(h.pagination.LoadedWeekKeys, w.Key())
		h.pagination.EarliestLoaded = &w
	}
	last := page.Last
	h.cursor = &last
	h.pagination.HasMore = page.HasMore
}

func (h *History) loadFailedLocked(page Page) error {
	err := fmt.Errorf("load history: %w", errors.Join(failureErrs(page.Failures)...))
	h.lastErr = err.Error()
	h.logger.Error("history load failed", zap.Error(err))
	h.notifyLocked(LevelError, "Could not load history")
	return err
}

func (h *History) partialFailureLocked(page Page) {
	if len(page.Failures) == 0 {
		return
	}
	h.notifyLocked(LevelError, fmt.Sprintf("%d week(s) could not be loaded", len(page.Failures)))
}

func failureErrs(failures []WeekFailure) []error {
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errs
}

// carryOver keeps UI state that survives re-aggregation
func carryOver(prev, next *WeekGroup) {
	next.Collapsed = prev.Collapsed
	for d := range next.Days {
		for i := range next.Days[d].Items {
			if g := next.Days[d].Items[i].Group; g != nil {
				if old := prev.FindGroup(g.ID); old != nil {
					g.Expanded = old.Expanded
				}
			}
		}
	}
	// A summary produced this session keeps its card state until the
	// store reflects it
	if next.Summary == nil && prev.Summary == nil && prev.SummaryState != summarize.StateSuccess {
		next.SummaryState = prev.SummaryState
		next.SummaryMessage = prev.SummaryMessage
	}
}

// keepNewerSummary keeps a summary folded into prev after next was fetched
func keepNewerSummary(prev, next *WeekGroup) {
	if next.Summary == nil && prev.Summary != nil {
		next.Summary = prev.Summary
		next.SummaryState = prev.SummaryState
		next.SummaryMessage = prev.SummaryMessage
	}
}

// find returns the visible week with key, or nil. Callers hold mu.
func (h *History) find(key string) *WeekGroup {
	for i := range h.weeks {
		if h.weeks[i].Key == key {
			return &h.weeks[i]
		}
	}
	return nil
}

// ToggleWeekCollapsed flips one week's collapsed flag
func (h *History) ToggleWeekCollapsed(key string) bool {
	return h.UpdateWeek(key, func(w *WeekGroup) { w.Collapsed = !w.Collapsed })
}

// ToggleDuplicateGroup expands or collapses one duplicate group
func (h *History) ToggleDuplicateGroup(weekKey, groupID string) bool {
	found := false
	h.UpdateWeek(weekKey, func(w *WeekGroup) {
		if g := w.FindGroup(groupID); g != nil {
			g.Expanded = !g.Expanded
			found = true
		}
	})
	return found
}

// UpdateWeek applies fn to one week and leaves the others untouched. A week
// left without content is removed.
func (h *History) UpdateWeek(key string, fn func(*WeekGroup)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updateLocked(key, fn)
}

func (h *History) updateLocked(key string, fn func(*WeekGroup)) bool {
	w := h.find(key)
	if w == nil {
		return false
	}
	fn(w)
	if !w.HasContent() {
		h.removeLocked(key)
	}
	return true
}

// RemoveWeek drops one week from the visible collection
func (h *History) RemoveWeek(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(key)
}

func (h *History) removeLocked(key string) bool {
	i := slices.IndexFunc(h.weeks, func(w WeekGroup) bool { return w.Key == key })
	if i < 0 {
		return false
	}
	h.weeks = slices.Delete(h.weeks, i, i+1)
	reindex(h.weeks)
	h.touchLocked(key)
	return true
}

// reloadWeek re-fetches one week after a mutation and swaps it in place.
// The week is dropped when it has no content left.
func (h *History) reloadWeek(ctx context.Context, key string) error {
	h.mu.Lock()
	w := h.find(key)
	if w == nil {
		h.mu.Unlock()
		return nil
	}
	week := w.Week
	seen := h.versions[key]
	h.mu.Unlock()

	raw, err := h.loader.FetchWeek(ctx, week)
	if err != nil {
		return fmt.Errorf("reload week %s: %w", key, err)
	}
	next := TransformWeek(raw)

	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.find(key)
	if prev == nil {
		return nil
	}
	carryOver(prev, &next)
	if h.versions[key] != seen {
		keepNewerSummary(prev, &next)
	}
	next.OrderIndex = prev.OrderIndex
	*prev = next
	h.touchLocked(key)
	if !prev.HasContent() {
		h.removeLocked(key)
	}
	return nil
}

// GenerateSummary runs the summary workflow for a visible week and folds
// the result into it. A result for a week removed meanwhile is dropped.
func (h *History) GenerateSummary(ctx context.Context, key string) summarize.Result {
	h.mu.Lock()
	w := h.find(key)
	if w == nil {
		h.mu.Unlock()
		return summarize.Result{State: summarize.StateFailed, Message: ErrWeekNotLoaded.Error()}
	}
	week := w.Week
	if w.SummaryState == summarize.StateGenerating {
		h.mu.Unlock()
		return summarize.Result{State: summarize.StateGenerating, Message: "generation already in progress"}
	}
	// The completion gate fails without passing through generating
	if h.summarizer.Completed(week) {
		w.SummaryState = summarize.StateGenerating
		w.SummaryMessage = ""
	}
	h.mu.Unlock()

	res := h.summarizer.Generate(ctx, week)

	var existing *models.Summary
	if res.State == summarize.StateAlreadyExists {
		s, err := h.store.SummaryForWeek(ctx, week.Year, week.Number)
		if err != nil {
			h.logger.Warn("existing summary fetch failed", zap.String("week", key), zap.Error(err))
		}
		existing = s
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.find(key) == nil {
		h.logger.Debug("dropping result for removed week", zap.String("week", key))
		return res
	}
	h.touchLocked(key)
	h.updateLocked(key, func(w *WeekGroup) {
		switch {
		case res.State == summarize.StateGenerating:
			// another attempt owns the card
		case res.State == summarize.StateSuccess:
			w.Summary = res.Summary
			w.SummaryState = summarize.StateSuccess
			w.SummaryMessage = ""
		case existing != nil:
			w.Summary = existing
			w.SummaryState = summarize.StateSuccess
			w.SummaryMessage = ""
		default:
			w.SummaryState = res.State
			w.SummaryMessage = res.Message
		}
	})

	switch res.State {
	case summarize.StateSuccess:
		h.notifyLocked(LevelSuccess, "Summary generated for "+key)
	case summarize.StateGenerating, summarize.StateAlreadyExists:
	default:
		h.lastErr = res.Message
		h.notifyLocked(LevelError, res.Message)
	}
	return res
}

// EditSummary replaces a visible week's summary text
func (h *History) EditSummary(ctx context.Context, key, content string) error {
	h.mu.Lock()
	w := h.find(key)
	if w == nil || w.Summary == nil {
		h.mu.Unlock()
		return fmt.Errorf("edit summary %s: %w", key, models.ErrNotFound)
	}
	id := w.Summary.ID
	h.mu.Unlock()

	if err := h.store.UpdateSummary(ctx, id, content); err != nil {
		return h.surface(fmt.Errorf("edit summary %s: %w", key, err), "Could not save summary")
	}
	if err := h.reloadWeek(ctx, key); err != nil {
		return h.surface(err, "Could not reload week")
	}
	h.Notify(LevelSuccess, "Summary saved")
	return nil
}

// surface records err as the last error and notifies the user
func (h *History) surface(err error, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastErr = err.Error()
	h.logger.Error(msg, zap.Error(err))
	h.notifyLocked(LevelError, msg)
	return err
}

// Close stops pending notification timers
func (h *History) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
}
