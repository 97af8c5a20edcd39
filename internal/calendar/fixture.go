package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/schedule"
)

// FixtureStore serves calendar events from a JSON file instead of the
// Google API. Used by the CLI's offline mode to try out queries against
// a known calendar without OAuth setup, and by integration-style tests.
//
// Fixture format:
//
//	{
//	  "attendees": {
//	    "alice@example.com": {
//	      "events": [
//	        {"id": "standup", "title": "Team standup",
//	         "start": "2026-03-02T09:00:00Z", "end": "2026-03-02T09:30:00Z"}
//	      ]
//	    },
//	    "carol@example.com": {"error": "not_authorized"}
//	  }
//	}
type FixtureStore struct {
	attendees map[string]fixtureAttendee
}

type fixtureFile struct {
	Attendees map[string]fixtureAttendee `json:"attendees"`
}

type fixtureAttendee struct {
	Error  string         `json:"error,omitempty"`
	Events []fixtureEvent `json:"events,omitempty"`
}

type fixtureEvent struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AllDay         bool      `json:"all_day,omitempty"`
	ResponseStatus string    `json:"response_status,omitempty"`
}

// LoadFixtureStore reads and parses a fixture file.
func LoadFixtureStore(path string) (*FixtureStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixtureStore(data)
}

// ParseFixtureStore parses fixture JSON.
func ParseFixtureStore(data []byte) (*FixtureStore, error) {
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture data: %w", err)
	}
	if len(file.Attendees) == 0 {
		return nil, fmt.Errorf("fixture data contains no attendees")
	}
	return &FixtureStore{attendees: file.Attendees}, nil
}

// Attendees returns the attendee addresses present in the fixture.
func (s *FixtureStore) Attendees() []string {
	var names []string
	for name := range s.attendees {
		names = append(names, name)
	}
	return names
}

// FetchEvents implements schedule.EventStore. Attendees absent from the
// fixture behave like calendars the account cannot see.
func (s *FixtureStore) FetchEvents(ctx context.Context, attendee string, window interval.Interval) ([]schedule.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := s.attendees[attendee]
	if !ok {
		return nil, fmt.Errorf("%w: attendee %s not in fixture", schedule.ErrNotAuthorized, attendee)
	}

	switch entry.Error {
	case "":
	case "not_authorized":
		return nil, fmt.Errorf("%w: fixture", schedule.ErrNotAuthorized)
	case "rate_limited":
		return nil, fmt.Errorf("%w: fixture", schedule.ErrRateLimited)
	case "unavailable":
		return nil, fmt.Errorf("%w: fixture", schedule.ErrUnavailable)
	default:
		return nil, fmt.Errorf("fixture declares unknown error %q for %s", entry.Error, attendee)
	}

	var events []schedule.CalendarEvent
	for _, ev := range entry.Events {
		iv := interval.Interval{Start: ev.Start, End: ev.End}
		if !iv.Overlaps(window) {
			continue
		}
		status := ev.ResponseStatus
		if status == "" {
			status = "accepted"
		}
		events = append(events, schedule.CalendarEvent{
			ID:             ev.ID,
			Attendee:       attendee,
			Interval:       iv,
			Title:          ev.Title,
			AllDay:         ev.AllDay,
			ResponseStatus: status,
		})
	}
	return events, nil
}
