package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/chris/worklog/internal/calendar"
	"github.com/chris/worklog/internal/summarize"
	"github.com/chris/worklog/pkg/models"
)

// week10 is Mar 3 - Mar 9 2025
var week10 = calendar.Week{Year: 2025, Number: 10}

// march returns a local instant in March 2025
func march(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.Local)
}

type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	entries    []models.Entry
	summaries  map[calendar.Week]*models.Summary
	failWeeks  map[calendar.Week]error
	updateErr  error
	deleteErr  error
	entryCalls int
	holds      map[calendar.Week]*hold
}

// hold pauses one SummaryForWeek call after it has read its answer
type hold struct {
	reached chan struct{}
	release chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summaries: make(map[calendar.Week]*models.Summary),
		failWeeks: make(map[calendar.Week]error),
		holds:     make(map[calendar.Week]*hold),
	}
}

// holdSummary makes the next SummaryForWeek(w) read the store, close
// reached, then wait for release before returning what it read
func (s *fakeStore) holdSummary(w calendar.Week) (reached <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hd := &hold{reached: make(chan struct{}), release: make(chan struct{})}
	s.holds[w] = hd
	return hd.reached, func() { close(hd.release) }
}

func (s *fakeStore) add(content string, at time.Time) models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := models.NewEntry(content, at)
	e.ID = s.nextID
	s.entries = append(s.entries, *e)
	return *e
}

func (s *fakeStore) addSummary(w calendar.Week, content string) *models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end := w.DateRange()
	s.nextID++
	sum := &models.Summary{ID: s.nextID, Content: content, StartDate: start, EndDate: end, ISOYear: w.Year, WeekOfYear: w.Number}
	s.summaries[w] = sum
	return sum
}

func (s *fakeStore) fail(w calendar.Week, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failWeeks, w)
		return
	}
	s.failWeeks[w] = err
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryCalls
}

func (s *fakeStore) EntriesForWeek(ctx context.Context, isoYear, week int) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryCalls++
	if err := s.failWeeks[calendar.Week{Year: isoYear, Number: week}]; err != nil {
		return nil, err
	}
	var out []models.Entry
	for _, e := range s.entries {
		if e.ISOYear == isoYear && e.WeekOfYear == week {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) SummaryForWeek(ctx context.Context, isoYear, week int) (*models.Summary, error) {
	s.mu.Lock()
	w := calendar.Week{Year: isoYear, Number: week}
	if err := s.failWeeks[w]; err != nil {
		s.mu.Unlock()
		return nil, err
	}
	var out *models.Summary
	if sum, ok := s.summaries[w]; ok {
		c := *sum
		out = &c
	}
	hd := s.holds[w]
	delete(s.holds, w)
	s.mu.Unlock()

	if hd != nil {
		close(hd.reached)
		<-hd.release
	}
	return out, nil
}

func (s *fakeStore) SummaryExistsForWeek(ctx context.Context, isoYear, week int) (models.Existence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[calendar.Week{Year: isoYear, Number: week}]; ok {
		return models.Exists, nil
	}
	return models.Absent, nil
}

func (s *fakeStore) CreateSummary(ctx context.Context, sum models.Summary) (*models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := calendar.Week{Year: sum.ISOYear, Number: sum.WeekOfYear}
	if _, ok := s.summaries[w]; ok {
		return nil, models.ErrSummaryExists
	}
	s.nextID++
	sum.ID = s.nextID
	s.summaries[w] = &sum
	c := sum
	return &c, nil
}

func (s *fakeStore) UpdateEntry(ctx context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Content = content
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeStore) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	i := slices.IndexFunc(s.entries, func(e models.Entry) bool { return e.ID == id })
	if i < 0 {
		return models.ErrNotFound
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

func (s *fakeStore) UpdateSummary(ctx context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sum := range s.summaries {
		if sum.ID == id {
			sum.Content = content
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeStore) DeleteSummary(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for w, sum := range s.summaries {
		if sum.ID == id {
			delete(s.summaries, w)
			return nil
		}
	}
	return models.ErrNotFound
}

type fakeSummarizer struct {
	mu         sync.Mutex
	completed  bool
	result     summarize.Result
	calls      int
	onGenerate func()
}

func (f *fakeSummarizer) Completed(w calendar.Week) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *fakeSummarizer) Generate(ctx context.Context, w calendar.Week) summarize.Result {
	f.mu.Lock()
	f.calls++
	hook := f.onGenerate
	res := f.result
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res
}

type fakeTokens struct{ token string }

func (t fakeTokens) AccessToken(ctx context.Context) (string, error) { return t.token, nil }

type fakeGenerator struct {
	mu       sync.Mutex
	response summarize.Response
	requests []summarize.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, accessToken string, req summarize.Request) (summarize.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.response, nil
}
