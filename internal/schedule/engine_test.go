package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/teemow/meetfinder/internal/interval"
)

// fakeStore serves canned events and failures per attendee. Attendees
// listed in hang block until the fetch context expires.
type fakeStore struct {
	mu     sync.Mutex
	events map[string][]CalendarEvent
	errs   map[string]error
	hang   map[string]bool
	calls  []string
}

func (s *fakeStore) FetchEvents(ctx context.Context, attendee string, window interval.Interval) ([]CalendarEvent, error) {
	s.mu.Lock()
	s.calls = append(s.calls, attendee)
	s.mu.Unlock()

	if s.hang[attendee] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.errs[attendee]; err != nil {
		return nil, err
	}
	return s.events[attendee], nil
}

func newTestEngine(t *testing.T, store EventStore) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		Store:        store,
		Policy:       DefaultBlockingPolicy(),
		FetchTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	return engine
}

func hourQuery() AvailabilityQuery {
	return AvailabilityQuery{
		Attendees: []string{"alice@example.com"},
		Duration:  time.Hour,
		Window:    window(9, 17),
	}
}

func TestScheduleFindsSlotAfterMorningEvent(t *testing.T) {
	store := &fakeStore{events: map[string][]CalendarEvent{
		"alice@example.com": {event("morning", span(9, 0, 9, 30))},
	}}

	result, err := newTestEngine(t, store).Schedule(context.Background(), hourQuery())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	require.NotEmpty(t, result.Candidates)
	assert.True(t, result.Candidates[0].Interval.Start.Equal(at(9, 30)),
		"top candidate should start at 09:30, got %v", result.Candidates[0].Interval.Start)
	assert.False(t, result.Partial())

	for _, c := range result.Candidates {
		assert.False(t, c.Interval.Overlaps(span(9, 0, 9, 30)),
			"candidate %v overlaps the busy event", c.Interval)
	}
}

func TestScheduleNeverOffersConflictingSlot(t *testing.T) {
	store := &fakeStore{events: map[string][]CalendarEvent{
		"alice@example.com": {event("standup", span(14, 0, 15, 30))},
	}}

	result, err := newTestEngine(t, store).Schedule(context.Background(), hourQuery())
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, result.Outcome)

	blocked := span(14, 0, 15, 30)
	for _, c := range result.Candidates {
		assert.False(t, c.Interval.Overlaps(blocked),
			"candidate %v overlaps busy time %v", c.Interval, blocked)
	}
}

func TestScheduleConflictedWhenFullyBooked(t *testing.T) {
	var events []CalendarEvent
	for h := 9; h < 17; h++ {
		events = append(events, CalendarEvent{
			ID:             "block-" + at(h, 0).Format("15"),
			Title:          "Focus block",
			Interval:       span(h, 0, h+1, 0),
			ResponseStatus: "accepted",
		})
	}
	store := &fakeStore{events: map[string][]CalendarEvent{
		"alice@example.com": events,
	}}

	query := hourQuery()
	query.Duration = 2 * time.Hour

	result, err := newTestEngine(t, store).Schedule(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, OutcomeConflicted, result.Outcome)
	assert.Empty(t, result.Candidates)
	assert.Len(t, result.Conflicts, len(events), "one conflict record per hour block")
}

func TestScheduleEmptyCalendarOffersWindowStart(t *testing.T) {
	store := &fakeStore{events: map[string][]CalendarEvent{
		"alice@example.com": nil,
	}}

	result, err := newTestEngine(t, store).Schedule(context.Background(), hourQuery())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	require.NotEmpty(t, result.Candidates)
	assert.True(t, result.Candidates[0].Interval.Equal(span(9, 0, 10, 0)),
		"top candidate should span the first hour, got %v", result.Candidates[0].Interval)
}

func TestSchedulePartialOnFetchTimeout(t *testing.T) {
	store := &fakeStore{
		events: map[string][]CalendarEvent{
			"alice@example.com": {event("morning", span(9, 0, 10, 0))},
		},
		hang: map[string]bool{"bob@example.com": true},
	}

	query := hourQuery()
	query.Attendees = []string{"alice@example.com", "bob@example.com"}

	result, err := newTestEngine(t, store).Schedule(context.Background(), query)
	require.NoError(t, err)

	assert.NotEqual(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	assert.True(t, result.Partial())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "bob@example.com", result.Warnings[0].Attendee)
	assert.Equal(t, "calendar fetch timed out", result.Warnings[0].Reason)

	// Alice's data still applies: nothing before 10:00.
	for _, c := range result.Candidates {
		assert.False(t, c.Interval.Overlaps(span(9, 0, 10, 0)))
	}
}

func TestSchedulePartialOnNotAuthorized(t *testing.T) {
	store := &fakeStore{
		events: map[string][]CalendarEvent{
			"alice@example.com": nil,
		},
		errs: map[string]error{"bob@example.com": ErrNotAuthorized},
	}

	query := hourQuery()
	query.Attendees = []string{"alice@example.com", "bob@example.com"}

	result, err := newTestEngine(t, store).Schedule(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "calendar access not authorized", result.Warnings[0].Reason)
}

func TestScheduleFailsWhenAllAttendeesFail(t *testing.T) {
	store := &fakeStore{errs: map[string]error{
		"alice@example.com": ErrUnavailable,
		"bob@example.com":   ErrRateLimited,
	}}

	query := hourQuery()
	query.Attendees = []string{"alice@example.com", "bob@example.com"}

	result, err := newTestEngine(t, store).Schedule(context.Background(), query)
	require.ErrorIs(t, err, ErrAllAttendeesFailed)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Len(t, result.Warnings, 2)
}

func TestScheduleRejectsInvalidQuery(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store)

	tests := []struct {
		name   string
		mutate func(*AvailabilityQuery)
	}{
		{"zero duration", func(q *AvailabilityQuery) { q.Duration = 0 }},
		{"negative duration", func(q *AvailabilityQuery) { q.Duration = -time.Hour }},
		{"inverted window", func(q *AvailabilityQuery) {
			q.Window.Range = interval.Interval{Start: at(17, 0), End: at(9, 0)}
		}},
		{"negative max candidates", func(q *AvailabilityQuery) { q.MaxCandidates = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := hourQuery()
			tt.mutate(&query)

			result, err := engine.Schedule(context.Background(), query)
			require.ErrorIs(t, err, ErrInvalidQuery)
			assert.Equal(t, OutcomeFailed, result.Outcome)
			assert.Empty(t, store.calls, "no fetch should be issued for an invalid query")
		})
	}
}

func TestScheduleNoAttendeesUsesBusinessHoursAlone(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store)

	query := hourQuery()
	query.Attendees = nil
	query.Window.Hours = BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour}
	query.Window.Range = interval.MustNew(at(0, 0), at(0, 0).AddDate(0, 0, 1))

	result, err := engine.Schedule(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	require.NotEmpty(t, result.Candidates)
	assert.True(t, result.Candidates[0].Interval.Equal(span(9, 0, 10, 0)),
		"top candidate should open the business day, got %v", result.Candidates[0].Interval)
	assert.Empty(t, store.calls, "no fetch should be issued without attendees")
}

func TestScheduleBoundsConcurrentFetches(t *testing.T) {
	attendees := []string{
		"a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com", "f@example.com",
	}

	var mu sync.Mutex
	inFlight, peak := 0, 0
	store := eventStoreFunc(func(ctx context.Context, attendee string, _ interval.Interval) ([]CalendarEvent, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil, nil
	})

	engine, err := NewEngine(EngineConfig{Store: store, MaxConcurrentFetches: 2})
	require.NoError(t, err)

	query := hourQuery()
	query.Attendees = attendees

	_, err = engine.Schedule(context.Background(), query)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 2, "fetch concurrency exceeded the configured bound")
}

func TestScheduleSharedLimiterBoundsAcrossEngines(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	store := eventStoreFunc(func(ctx context.Context, attendee string, _ interval.Interval) ([]CalendarEvent, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil, nil
	})

	// Two engines sharing one limiter, queried concurrently. The bound
	// must hold over the total in-flight fetches, not per engine.
	shared := semaphore.NewWeighted(2)
	var engines []*Engine
	for i := 0; i < 2; i++ {
		engine, err := NewEngine(EngineConfig{Store: store, FetchLimiter: shared})
		require.NoError(t, err)
		engines = append(engines, engine)
	}

	query := hourQuery()
	query.Attendees = []string{
		"a@example.com", "b@example.com", "c@example.com", "d@example.com",
	}

	var wg sync.WaitGroup
	for _, engine := range engines {
		wg.Add(1)
		go func(e *Engine) {
			defer wg.Done()
			_, err := e.Schedule(context.Background(), query)
			assert.NoError(t, err)
		}(engine)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 2, "shared limiter must bound fetches across engines")
}

func TestExplainWindow(t *testing.T) {
	store := &fakeStore{events: map[string][]CalendarEvent{
		"alice@example.com": {
			{ID: "standup", Title: "Team standup", Interval: span(14, 0, 15, 30), ResponseStatus: "accepted"},
		},
	}}
	engine := newTestEngine(t, store)

	query := hourQuery()
	query.Window.Range = span(15, 0, 16, 0)

	records, warnings, err := engine.ExplainWindow(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 1)
	assert.Equal(t, "standup", records[0].EventID)
	assert.True(t, records[0].Overlap.Equal(span(15, 0, 15, 30)))
}

func TestFreeBusy(t *testing.T) {
	store := &fakeStore{events: map[string][]CalendarEvent{
		"bob@example.com": {
			event("late", span(11, 0, 12, 0)),
			event("early", span(9, 0, 10, 0)),
			event("early2", span(9, 30, 10, 30)),
		},
		"alice@example.com": nil,
	}}
	engine := newTestEngine(t, store)

	query := hourQuery()
	query.Attendees = []string{"alice@example.com", "bob@example.com"}

	sets, warnings, err := engine.FreeBusy(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, sets, 2)

	// Sets come back sorted by attendee.
	assert.Equal(t, "alice@example.com", sets[0].Attendee)
	assert.Empty(t, sets[0].Intervals)

	// Bob's overlapping morning events merge into one busy block.
	assert.Equal(t, "bob@example.com", sets[1].Attendee)
	require.Len(t, sets[1].Intervals, 2)
	assert.True(t, sets[1].Intervals[0].Equal(span(9, 0, 10, 30)))
	assert.True(t, sets[1].Intervals[1].Equal(span(11, 0, 12, 0)))
}

func TestFreeBusyAllAttendeesFail(t *testing.T) {
	store := &fakeStore{errs: map[string]error{
		"alice@example.com": ErrUnavailable,
	}}
	engine := newTestEngine(t, store)

	_, warnings, err := engine.FreeBusy(context.Background(), hourQuery())
	require.ErrorIs(t, err, ErrAllAttendeesFailed)
	require.Len(t, warnings, 1)
	assert.Equal(t, "calendar store unavailable", warnings[0].Reason)
}

// eventStoreFunc adapts a function to the EventStore interface.
type eventStoreFunc func(ctx context.Context, attendee string, window interval.Interval) ([]CalendarEvent, error)

func (f eventStoreFunc) FetchEvents(ctx context.Context, attendee string, window interval.Interval) ([]CalendarEvent, error) {
	return f(ctx, attendee, window)
}
