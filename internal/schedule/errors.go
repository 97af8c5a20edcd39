package schedule

import "errors"

// Error taxonomy for the scheduling engine. Callers never see raw
// infrastructure errors; every user-visible failure wraps one of these.
var (
	// ErrInvalidQuery marks a malformed AvailabilityQuery: zero or
	// negative duration, inverted window, bad business hours. Rejected
	// synchronously before any fetch.
	ErrInvalidQuery = errors.New("invalid availability query")

	// ErrInvalidEvent marks a calendar event whose interval is
	// malformed (start >= end). Individual events are dropped with a
	// warning; the error is returned only when the majority of one
	// attendee's events are malformed.
	ErrInvalidEvent = errors.New("invalid calendar event")

	// ErrNotAuthorized means the calendar store refused access to an
	// attendee's calendar. A hard per-attendee failure.
	ErrNotAuthorized = errors.New("calendar access not authorized")

	// ErrRateLimited means the calendar store throttled the fetch.
	// Treated like a timeout: the attendee's availability is unknown.
	ErrRateLimited = errors.New("calendar store rate limited")

	// ErrUnavailable means the calendar store could not be reached.
	// Treated like a timeout: the attendee's availability is unknown.
	ErrUnavailable = errors.New("calendar store unavailable")

	// ErrAllAttendeesFailed means no attendee's calendar could be
	// fetched, so no resolution is possible.
	ErrAllAttendeesFailed = errors.New("calendar fetch failed for all attendees")
)
