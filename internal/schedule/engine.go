package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/logging"
)

// Default engine limits. Fetches run concurrently but bounded, so a
// query with dozens of attendees cannot stampede the calendar backend.
const (
	DefaultMaxConcurrentFetches = 4
	DefaultFetchTimeout         = 10 * time.Second
)

// EventStore fetches one attendee's calendar events overlapping the
// search window. Implementations map backend failures onto the schedule
// error taxonomy: ErrNotAuthorized, ErrRateLimited, ErrUnavailable.
type EventStore interface {
	FetchEvents(ctx context.Context, attendee string, window interval.Interval) ([]CalendarEvent, error)
}

// EngineConfig configures an Engine. Zero values fall back to defaults.
type EngineConfig struct {
	Store                EventStore
	Policy               BlockingPolicy
	Logger               *slog.Logger
	MaxConcurrentFetches int64
	FetchTimeout         time.Duration

	// FetchLimiter optionally shares one fetch bound between engines.
	// Callers that build an engine per request pass a process-wide
	// limiter here so concurrent queries cannot multiply the bound.
	// When nil the engine creates its own, sized by MaxConcurrentFetches.
	FetchLimiter *semaphore.Weighted
}

// Engine orchestrates one scheduling query end to end: fetch, busy-set
// construction, resolution, ranking and conflict explanation. An Engine
// is safe for concurrent use; all per-query state lives on the stack.
// The fetch limiter is held for the engine's lifetime, so it bounds
// in-flight fetches across every query on the engine, not per call.
type Engine struct {
	store        EventStore
	resolver     *Resolver
	ranker       *Ranker
	policy       BlockingPolicy
	logger       *slog.Logger
	fetchSem     *semaphore.Weighted
	fetchTimeout time.Duration
}

// NewEngine creates an Engine from the given config.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine requires an event store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxFetches := cfg.MaxConcurrentFetches
	if maxFetches <= 0 {
		maxFetches = DefaultMaxConcurrentFetches
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	sem := cfg.FetchLimiter
	if sem == nil {
		sem = semaphore.NewWeighted(maxFetches)
	}
	return &Engine{
		store:        cfg.Store,
		resolver:     NewResolver(),
		ranker:       NewRanker(),
		policy:       cfg.Policy,
		logger:       logger,
		fetchSem:     sem,
		fetchTimeout: fetchTimeout,
	}, nil
}

// Schedule runs one availability query to a terminal outcome.
//
// The returned error is non-nil only when the query never produced a
// usable result: validation failure, context cancellation, or every
// attendee's fetch failing. A fully booked calendar is not an error;
// it yields OutcomeConflicted with a conflict report.
//
// A query with no attendees skips the fetch and resolves against the
// business-hours mask alone, so the free time is the window minus the
// mask.
func (e *Engine) Schedule(ctx context.Context, query AvailabilityQuery) (Result, error) {
	if err := query.Validate(); err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}, err
	}

	logger := logging.WithOperation(e.logger, "schedule.query")
	started := time.Now()

	var (
		fetched  map[string][]CalendarEvent
		warnings []AttendeeWarning
		sets     []BusySet
	)
	if len(query.Attendees) > 0 {
		var err error
		fetched, warnings, err = e.fetchAll(ctx, logger, query)
		if err != nil {
			logger.Error("scheduling query failed",
				logging.Outcome(string(OutcomeFailed)),
				logging.Err(err),
			)
			return Result{Outcome: OutcomeFailed, Warnings: warnings, Err: err}, err
		}

		sets = make([]BusySet, 0, len(fetched))
		for attendee, events := range fetched {
			set, buildErr := BuildBusySet(attendee, events, e.policy, logger)
			if buildErr != nil {
				logger.Warn("excluding attendee with unusable calendar data",
					logging.AttendeeAttr(attendee),
					logging.Err(buildErr),
				)
				warnings = append(warnings, AttendeeWarning{Attendee: attendee, Reason: buildErr.Error()})
				delete(fetched, attendee)
				continue
			}
			sets = append(sets, set)
		}
		if len(sets) == 0 {
			err := fmt.Errorf("%w: no usable calendar data", ErrAllAttendeesFailed)
			return Result{Outcome: OutcomeFailed, Warnings: warnings, Err: err}, err
		}
	}

	free := e.resolver.Resolve(query.Window, sets, query.Duration)
	candidates := e.ranker.Rank(query, free)

	sortWarnings(warnings)

	if len(candidates) == 0 {
		logger.Info("scheduling query conflicted",
			logging.Outcome(string(OutcomeConflicted)),
			slog.Int("attendees", len(sets)),
			slog.Duration(logging.KeyDuration, time.Since(started)),
		)
		return Result{
			Outcome:   OutcomeConflicted,
			Conflicts: ExplainConflicts(query.Window, fetched, e.policy),
			Warnings:  warnings,
		}, nil
	}

	logger.Info("scheduling query succeeded",
		logging.Outcome(string(OutcomeSucceeded)),
		slog.Int("attendees", len(sets)),
		slog.Int("candidates", len(candidates)),
		slog.Duration(logging.KeyDuration, time.Since(started)),
	)
	return Result{
		Outcome:    OutcomeSucceeded,
		Candidates: candidates,
		Warnings:   warnings,
	}, nil
}

// ExplainWindow reports the blocking events for a specific window using
// freshly fetched data. Used by the conflict-explanation surface, which
// answers "why can't we meet at 15:00" without running a full search.
func (e *Engine) ExplainWindow(ctx context.Context, query AvailabilityQuery) ([]ConflictRecord, []AttendeeWarning, error) {
	if err := query.Validate(); err != nil {
		return nil, nil, err
	}
	if len(query.Attendees) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one attendee is required", ErrInvalidQuery)
	}

	logger := logging.WithOperation(e.logger, "schedule.explain")
	fetched, warnings, err := e.fetchAll(ctx, logger, query)
	if err != nil {
		return nil, warnings, err
	}
	sortWarnings(warnings)
	return ExplainConflicts(query.Window, fetched, e.policy), warnings, nil
}

// FreeBusy returns each attendee's merged busy timeline within the
// query window, without ranking or candidate generation. Duration and
// business hours on the query are ignored; only attendees and the
// window range matter.
func (e *Engine) FreeBusy(ctx context.Context, query AvailabilityQuery) ([]BusySet, []AttendeeWarning, error) {
	if query.Window.Range.IsZero() || !query.Window.Range.Start.Before(query.Window.Range.End) {
		return nil, nil, fmt.Errorf("%w: search window end must be after start", ErrInvalidQuery)
	}
	if len(query.Attendees) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one attendee is required", ErrInvalidQuery)
	}

	logger := logging.WithOperation(e.logger, "schedule.freebusy")
	fetched, warnings, err := e.fetchAll(ctx, logger, query)
	if err != nil {
		return nil, warnings, err
	}

	sets := make([]BusySet, 0, len(fetched))
	for attendee, events := range fetched {
		set, buildErr := BuildBusySet(attendee, events, e.policy, logger)
		if buildErr != nil {
			warnings = append(warnings, AttendeeWarning{Attendee: attendee, Reason: buildErr.Error()})
			continue
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, warnings, fmt.Errorf("%w: no usable calendar data", ErrAllAttendeesFailed)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Attendee < sets[j].Attendee })
	sortWarnings(warnings)
	return sets, warnings, nil
}

type fetchResult struct {
	attendee string
	events   []CalendarEvent
	err      error
}

// fetchAll fetches every attendee's events with bounded concurrency.
// Individual failures degrade to warnings; only the loss of every
// attendee, or cancellation of the parent context, is an error.
func (e *Engine) fetchAll(ctx context.Context, logger *slog.Logger, query AvailabilityQuery) (map[string][]CalendarEvent, []AttendeeWarning, error) {
	results := make(chan fetchResult, len(query.Attendees))

	var wg sync.WaitGroup
	for _, attendee := range query.Attendees {
		if err := e.fetchSem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(attendee string) {
			defer wg.Done()
			defer e.fetchSem.Release(1)

			fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
			defer cancel()

			events, err := e.store.FetchEvents(fetchCtx, attendee, query.Window.Range)
			results <- fetchResult{attendee: attendee, events: events, err: err}
		}(attendee)
	}
	wg.Wait()
	close(results)

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	fetched := make(map[string][]CalendarEvent, len(query.Attendees))
	var warnings []AttendeeWarning
	for res := range results {
		if res.err == nil {
			fetched[res.attendee] = res.events
			continue
		}
		reason := classifyFetchError(res.err)
		logger.Warn("calendar fetch failed",
			logging.AttendeeAttr(res.attendee),
			slog.String("reason", reason),
			logging.Err(res.err),
		)
		warnings = append(warnings, AttendeeWarning{Attendee: res.attendee, Reason: reason})
	}

	if len(fetched) == 0 {
		return nil, warnings, fmt.Errorf("%w: %d attendees", ErrAllAttendeesFailed, len(query.Attendees))
	}
	return fetched, warnings, nil
}

// classifyFetchError maps a fetch failure onto a stable, user-facing
// reason string. Authorization failures are permanent; everything else
// is transient and reads as "unknown availability".
func classifyFetchError(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "calendar access not authorized"
	case errors.Is(err, ErrRateLimited):
		return "calendar store rate limited"
	case errors.Is(err, ErrUnavailable):
		return "calendar store unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "calendar fetch timed out"
	default:
		return "calendar fetch failed"
	}
}

func sortWarnings(warnings []AttendeeWarning) {
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Attendee < warnings[j].Attendee
	})
}
