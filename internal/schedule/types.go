package schedule

import (
	"fmt"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
)

// CalendarEvent is a single event fetched from a calendar store.
// Events are copied into busy sets and never mutated by the engine.
type CalendarEvent struct {
	ID       string
	Attendee string
	Interval interval.Interval
	Title    string
	AllDay   bool

	// ResponseStatus mirrors the calendar provider's attendee response:
	// "accepted", "tentative", "declined" or "" when unknown.
	ResponseStatus string
}

// BusySet is one attendee's normalized busy timeline: sorted by start,
// pairwise non-overlapping and non-adjacent. Built fresh per query.
type BusySet struct {
	Attendee  string
	Intervals []interval.Interval
}

// BusinessHours describes the time-of-day and weekday constraints that
// candidate slots must respect. Start and End are offsets from midnight
// in the search window's reference zone.
type BusinessHours struct {
	Start time.Duration
	End   time.Duration
	Days  []time.Weekday
}

// DefaultBusinessDays is used when BusinessHours.Days is empty.
var DefaultBusinessDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// dayOf reports whether d is a configured business day.
func (h BusinessHours) dayOf(d time.Weekday) bool {
	days := h.Days
	if len(days) == 0 {
		days = DefaultBusinessDays
	}
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

// SearchWindow bounds where candidate slots may fall: an absolute time
// range plus the business-hours mask applied within it. All comparisons
// happen in Range.Start's location, the query's reference zone.
type SearchWindow struct {
	Range interval.Interval
	Hours BusinessHours
}

// BlockingPolicy controls which events count as busy time.
// The calendar providers behind this engine are inconsistent about
// all-day and tentative events, so the decision is explicit
// configuration rather than a hard-coded rule.
type BlockingPolicy struct {
	// BlockOnAllDay treats all-day events as busy time. Default false:
	// an all-day "conference" marker should not block every slot.
	BlockOnAllDay bool

	// BlockOnTentative treats tentatively accepted events as busy time.
	BlockOnTentative bool
}

// DefaultBlockingPolicy matches the common calendar convention:
// all-day events do not block, tentative events do, declined never do.
func DefaultBlockingPolicy() BlockingPolicy {
	return BlockingPolicy{BlockOnAllDay: false, BlockOnTentative: true}
}

// Blocks reports whether the event occupies busy time under this policy.
func (p BlockingPolicy) Blocks(event CalendarEvent) bool {
	if event.ResponseStatus == "declined" {
		return false
	}
	if event.AllDay && !p.BlockOnAllDay {
		return false
	}
	if event.ResponseStatus == "tentative" && !p.BlockOnTentative {
		return false
	}
	return true
}

// AvailabilityQuery is the single input value object for one resolution.
// It is immutable for the life of the query.
type AvailabilityQuery struct {
	Attendees     []string
	Duration      time.Duration
	Window        SearchWindow
	MaxCandidates int

	// PreferredTime biases ranking toward slots near this instant.
	PreferredTime *time.Time
}

// Validate rejects malformed queries before any fetch is issued.
// A zero-valued BusinessHours is valid and means no time-of-day
// restriction, matching how BusinessMask treats it.
func (q AvailabilityQuery) Validate() error {
	if q.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidQuery, q.Duration)
	}
	if q.Window.Range.IsZero() || !q.Window.Range.Start.Before(q.Window.Range.End) {
		return fmt.Errorf("%w: search window end must be after start", ErrInvalidQuery)
	}
	hours := q.Window.Hours
	if hours.Start != 0 || hours.End != 0 {
		if hours.Start < 0 || hours.End > 24*time.Hour || hours.Start >= hours.End {
			return fmt.Errorf("%w: business hours %v-%v are invalid", ErrInvalidQuery, hours.Start, hours.End)
		}
	}
	if q.MaxCandidates < 0 {
		return fmt.Errorf("%w: max candidates must not be negative", ErrInvalidQuery)
	}
	return nil
}

// SlotCandidate is a scored, duration-length meeting proposal.
// Confidence is derived by the ranker, never attendee-supplied.
type SlotCandidate struct {
	Interval   interval.Interval
	Confidence float64
}

// ConflictRecord names one busy event that blocked the requested window.
type ConflictRecord struct {
	Attendee string
	EventID  string
	Title    string
	Overlap  interval.Interval
}

// Outcome is the terminal state of one scheduling query.
type Outcome string

const (
	// OutcomeSucceeded means at least one candidate slot was found.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeConflicted means no slot of the requested duration exists.
	// This is a normal result, not an error.
	OutcomeConflicted Outcome = "conflicted"

	// OutcomeFailed means fetch or infrastructure errors prevented
	// resolution entirely.
	OutcomeFailed Outcome = "failed"
)

// AttendeeWarning records a per-attendee degradation: the attendee's
// calendar could not be fetched and their availability is unknown.
type AttendeeWarning struct {
	Attendee string
	Reason   string
}

func (w AttendeeWarning) String() string {
	return fmt.Sprintf("availability unknown for %s: %s", w.Attendee, w.Reason)
}

// Result is the public output of Engine.Schedule.
type Result struct {
	Outcome    Outcome
	Candidates []SlotCandidate
	Conflicts  []ConflictRecord

	// Warnings lists attendees whose availability is unknown; the
	// result was computed from the remaining attendees.
	Warnings []AttendeeWarning

	// Err is set only when Outcome is OutcomeFailed.
	Err error
}

// Partial reports whether the result was computed without full
// availability data for every attendee.
func (r Result) Partial() bool {
	return len(r.Warnings) > 0
}
