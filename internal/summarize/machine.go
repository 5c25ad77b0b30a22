package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/logging"
	"github.com/chris/worklog/pkg/models"
)

// DefaultLanguage is sent when no language is configured
const DefaultLanguage = "en"

const (
	msgNotCompleted  = "week not completed"
	msgNotSignedIn   = "not signed in"
	msgNoEntries     = "no entries for week"
	msgDBUnavailable = "database not available"
	msgExists        = "summary already exists for week"
	msgInProgress    = "generation already in progress"
	msgNoContent     = "generation returned no summary"
)

// ErrMissingCollaborator is returned by New when a collaborator is nil
var ErrMissingCollaborator = errors.New("summarize: missing collaborator")

// Machine runs the summary workflow. It is safe for concurrent use; two
// attempts for the same week never both run.
type Machine struct {
	store     Store
	tokens    TokenSource
	generator Generator
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
	language  string

	mu       sync.Mutex
	inFlight map[calendar.Week]struct{}
}

// Option configures a Machine
type Option func(*Machine)

// WithNow sets the clock used by the completion gate
func WithNow(fn func() time.Time) Option {
	return func(m *Machine) { m.now = fn }
}

// WithLanguage sets the language tag sent with each request
func WithLanguage(lang string) Option {
	return func(m *Machine) {
		if lang != "" {
			m.language = lang
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = logging.OrNop(l) }
}

// WithRecorder reports each terminal state to r
func WithRecorder(r Recorder) Option {
	return func(m *Machine) { m.recorder = r }
}

// New creates a Machine. All three collaborators are required.
func New(store Store, tokens TokenSource, generator Generator, opts ...Option) (*Machine, error) {
	if store == nil || tokens == nil || generator == nil {
		return nil, ErrMissingCollaborator
	}

	m := &Machine{
		store:     store,
		tokens:    tokens,
		generator: generator,
		logger:    zap.NewNop(),
		now:       time.Now,
		language:  DefaultLanguage,
		inFlight:  make(map[calendar.Week]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Completed reports whether w has ended, which generation requires
func (m *Machine) Completed(w calendar.Week) bool {
	return w.EndsBefore(m.now())
}

// InFlight reports whether a generation for w is currently running
func (m *Machine) InFlight(w calendar.Week) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[w]
	return ok
}

// Generate takes w through the gates in order and stops at the first one
// that fails. A concurrent call for a week already in flight returns
// StateGenerating without doing anything.
func (m *Machine) Generate(ctx context.Context, w calendar.Week) (res Result) {
	if !w.Valid() {
		return m.finish(w, fail(StateFailed, fmt.Sprintf("invalid week %s", w)))
	}
	if !m.Completed(w) {
		return m.finish(w, fail(StateFailed, msgNotCompleted))
	}

	if !m.begin(w) {
		return fail(StateGenerating, msgInProgress)
	}
	defer m.end(w)

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("summary generation panicked", zap.String("week", w.Key()), zap.Any("panic", r))
			res = m.finish(w, fail(StateFailed, fmt.Sprintf("unexpected error: %v", r)))
		}
	}()

	return m.finish(w, m.run(ctx, w))
}

func (m *Machine) run(ctx context.Context, w calendar.Week) Result {
	token, err := m.tokens.AccessToken(ctx)
	if err != nil {
		m.logger.Warn("access token unavailable", zap.String("week", w.Key()), zap.Error(err))
		return fail(StateUnauthorized, msgNotSignedIn)
	}
	if token == "" {
		return fail(StateUnauthorized, msgNotSignedIn)
	}

	entries, err := m.store.EntriesForWeek(ctx, w.Year, w.Number)
	if err != nil {
		m.logger.Error("failed to read entries", zap.String("week", w.Key()), zap.Error(err))
		return fail(StateFailed, msgDBUnavailable)
	}
	if len(entries) == 0 {
		return fail(StateFailed, msgNoEntries)
	}

	existence, err := m.store.SummaryExistsForWeek(ctx, w.Year, w.Number)
	switch {
	case err != nil:
		// Persistence rejects a true duplicate anyway
		m.logger.Warn("summary existence check failed, continuing", zap.String("week", w.Key()), zap.Error(err))
	case existence == models.Exists:
		return fail(StateAlreadyExists, msgExists)
	case existence == models.ExistsWeekOnly:
		return fail(StateAlreadyExists, fmt.Sprintf("summary exists for week %d (ISO year not verified)", w.Number))
	}

	start, end := w.DateRange()
	resp, err := m.generator.Generate(ctx, token, m.buildRequest(start, end, entries))
	if err != nil {
		m.logger.Warn("generation request failed", zap.String("week", w.Key()), zap.Error(err))
		return fail(StateFailed, err.Error())
	}
	if !resp.OK {
		return fail(stateForReason(resp.Reason), reasonMessage(resp))
	}

	content := strings.TrimSpace(resp.Summary)
	if content == "" {
		return fail(StateFailed, msgNoContent)
	}

	saved, err := m.store.CreateSummary(ctx, models.Summary{
		Content:    content,
		StartDate:  start,
		EndDate:    end,
		WeekOfYear: w.Number,
		ISOYear:    w.Year,
		CreatedAt:  m.now(),
	})
	switch {
	case errors.Is(err, models.ErrPastWeekUnsupported):
		return fail(StateUnsupported, err.Error())
	case errors.Is(err, models.ErrSummaryExists):
		return fail(StateAlreadyExists, msgExists)
	case err != nil:
		m.logger.Error("failed to save summary", zap.String("week", w.Key()), zap.Error(err))
		return fail(StateFailed, err.Error())
	}

	return Result{OK: true, State: StateSuccess, Summary: saved}
}

func (m *Machine) buildRequest(start, end string, entries []models.Entry) Request {
	lines := make([]EntryLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, EntryLine{
			Timestamp: e.CreatedAt.Format(time.RFC3339),
			Text:      e.Content,
		})
	}
	return Request{
		WeekStart: start,
		WeekEnd:   end,
		Entries:   lines,
		Language:  m.language,
	}
}

func (m *Machine) begin(w calendar.Week) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[w]; busy {
		return false
	}
	m.inFlight[w] = struct{}{}
	return true
}

func (m *Machine) end(w calendar.Week) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, w)
}

func (m *Machine) finish(w calendar.Week, res Result) Result {
	m.logger.Info("summary generation finished",
		zap.String("week", w.Key()),
		zap.String("state", string(res.State)),
		zap.String("message", res.Message),
	)
	if m.recorder != nil {
		m.recorder.ObserveGeneration(res.State)
	}
	return res
}

func fail(state CardState, msg string) Result {
	return Result{OK: false, State: state, Message: msg}
}

// stateForReason maps the service's failure reasons onto card states
func stateForReason(reason Reason) CardState {
	switch reason {
	case ReasonAuth:
		return StateUnauthorized
	case ReasonQuota:
		return StateLimitReached
	default:
		return StateFailed
	}
}

func reasonMessage(resp Response) string {
	if resp.Message != "" {
		return resp.Message
	}
	if resp.Reason != "" {
		return string(resp.Reason)
	}
	return "generation failed"
}
