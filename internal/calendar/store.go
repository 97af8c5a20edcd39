package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/logging"
	"github.com/teemow/meetfinder/internal/schedule"
)

// calendarAPI is the slice of Client the store needs. Tests substitute
// a fake; production code passes *Client.
type calendarAPI interface {
	Account() string
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error)
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error)
}

// Store adapts the Google Calendar API to the scheduling engine's event
// store. For attendees whose calendar the authorized account owns it
// lists full events (titles, all-day markers, response status); for
// everyone else it falls back to the free/busy API, which is all Google
// exposes about other people's calendars.
type Store struct {
	api    calendarAPI
	owned  map[string]bool
	logger *slog.Logger
}

// NewStore creates a Store. ownedCalendars lists the attendee addresses
// (calendar IDs) that the authorized account can read with full event
// detail; typically just the account's own address.
func NewStore(client *Client, ownedCalendars []string, logger *slog.Logger) *Store {
	return newStore(client, ownedCalendars, logger)
}

func newStore(api calendarAPI, ownedCalendars []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	owned := make(map[string]bool, len(ownedCalendars))
	for _, id := range ownedCalendars {
		owned[id] = true
	}
	return &Store{api: api, owned: owned, logger: logger}
}

// FetchEvents implements schedule.EventStore.
func (s *Store) FetchEvents(ctx context.Context, attendee string, window interval.Interval) ([]schedule.CalendarEvent, error) {
	logger := logging.WithOperation(s.logger, "calendar.fetch_events")
	started := time.Now()

	var (
		events []schedule.CalendarEvent
		err    error
	)
	if s.owned[attendee] {
		events, err = s.fetchOwned(ctx, attendee, window)
	} else {
		events, err = s.fetchFreeBusy(ctx, attendee, window)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("fetched calendar events",
		logging.AttendeeAttr(attendee),
		slog.Int("events", len(events)),
		slog.Duration(logging.KeyDuration, time.Since(started)),
	)
	return events, nil
}

// fetchOwned lists full events from a calendar the account can read.
func (s *Store) fetchOwned(ctx context.Context, attendee string, window interval.Interval) ([]schedule.CalendarEvent, error) {
	summaries, err := s.api.ListEvents(ctx, attendee, window.Start, window.End, "")
	if err != nil {
		return nil, mapAPIError(err)
	}

	var events []schedule.CalendarEvent
	for _, summary := range summaries {
		if summary.Status == "cancelled" {
			continue
		}
		events = append(events, schedule.CalendarEvent{
			ID:       summary.ID,
			Attendee: attendee,
			Interval: interval.Interval{Start: summary.Start, End: summary.End},
			Title:    summary.Summary,
			AllDay:   summary.AllDay,
			// An event without attendees is the calendar owner's own
			// block and always counts as accepted.
			ResponseStatus: ownResponse(summary, attendee),
		})
	}
	return events, nil
}

// fetchFreeBusy queries opaque busy blocks for calendars the account
// cannot read in full. The synthetic events carry no title and are
// always treated as accepted.
func (s *Store) fetchFreeBusy(ctx context.Context, attendee string, window interval.Interval) ([]schedule.CalendarEvent, error) {
	infos, err := s.api.QueryFreeBusy(ctx, window.Start, window.End, []string{attendee})
	if err != nil {
		return nil, mapAPIError(err)
	}

	var events []schedule.CalendarEvent
	for _, info := range infos {
		if info.Calendar != attendee {
			continue
		}
		if len(info.Errors) > 0 {
			// The free/busy API reports per-calendar lookup failures
			// inline instead of failing the request.
			return nil, fmt.Errorf("%w: freebusy lookup for %s: %s",
				schedule.ErrNotAuthorized, attendee, info.Errors[0])
		}
		for i, busy := range info.Busy {
			events = append(events, schedule.CalendarEvent{
				ID:             fmt.Sprintf("%s/busy/%d", attendee, i),
				Attendee:       attendee,
				Interval:       interval.Interval{Start: busy.Start, End: busy.End},
				Title:          "Busy",
				ResponseStatus: "accepted",
			})
		}
		return events, nil
	}
	return nil, fmt.Errorf("%w: freebusy response missing calendar %s", schedule.ErrUnavailable, attendee)
}

func ownResponse(summary EventSummary, attendee string) string {
	if status := summary.ResponseFor(attendee); status != "" {
		return status
	}
	return "accepted"
}

// mapAPIError translates Google API failures into the scheduling error
// taxonomy so the engine can classify them without knowing the backend.
func mapAPIError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	for _, item := range gerr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return fmt.Errorf("%w: %v", schedule.ErrRateLimited, err)
		}
	}

	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", schedule.ErrNotAuthorized, err)
	case gerr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", schedule.ErrRateLimited, err)
	case gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", schedule.ErrUnavailable, err)
	default:
		return err
	}
}
