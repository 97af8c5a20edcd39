package schedule

import (
	"testing"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
)

func TestExplainConflicts(t *testing.T) {
	policy := DefaultBlockingPolicy()

	// Alice's 14:00-15:30 standup blocks the requested 15:00-16:00 slot.
	events := map[string][]CalendarEvent{
		"alice@example.com": {
			{ID: "standup", Title: "Team standup", Interval: span(14, 0, 15, 30), ResponseStatus: "accepted"},
		},
	}

	records := ExplainConflicts(window(15, 16), events, policy)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(records), records)
	}

	rec := records[0]
	if rec.Attendee != "alice@example.com" || rec.EventID != "standup" {
		t.Errorf("unexpected record identity: %+v", rec)
	}
	if !rec.Overlap.Equal(span(15, 0, 15, 30)) {
		t.Errorf("Overlap = %v, want 15:00-15:30", rec.Overlap)
	}
}

func TestExplainConflictsSkipsNonBlocking(t *testing.T) {
	policy := DefaultBlockingPolicy()

	events := map[string][]CalendarEvent{
		"alice@example.com": {
			{ID: "declined", Interval: span(15, 0, 16, 0), ResponseStatus: "declined"},
			{ID: "allday", Interval: span(0, 0, 23, 0), AllDay: true, ResponseStatus: "accepted"},
			{ID: "elsewhere", Interval: span(9, 0, 10, 0), ResponseStatus: "accepted"},
			{ID: "malformed", Interval: interval.Interval{Start: at(16, 0), End: at(15, 0)}},
		},
	}

	if records := ExplainConflicts(window(15, 16), events, policy); len(records) != 0 {
		t.Errorf("expected no records, got %v", records)
	}
}

func TestExplainConflictsSkipsOutOfHoursEvents(t *testing.T) {
	policy := DefaultBlockingPolicy()

	// A full week with 09:00-17:00 business hours. The Saturday evening
	// event cannot overlap any schedulable slot, so it is not a conflict.
	w := SearchWindow{
		Range: interval.MustNew(at(0, 0), at(0, 0).AddDate(0, 0, 7)),
		Hours: BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour},
	}
	saturdayEvening := at(18, 0).AddDate(0, 0, 5)
	events := map[string][]CalendarEvent{
		"alice@example.com": {
			{ID: "party", Interval: interval.MustNew(saturdayEvening, saturdayEvening.Add(time.Hour)), ResponseStatus: "accepted"},
			{ID: "standup", Interval: span(9, 0, 9, 30), ResponseStatus: "accepted"},
		},
	}

	records := ExplainConflicts(w, events, policy)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(records), records)
	}
	if records[0].EventID != "standup" {
		t.Errorf("records[0].EventID = %q, want standup", records[0].EventID)
	}
}

func TestExplainConflictsClipsToBusinessHours(t *testing.T) {
	policy := DefaultBlockingPolicy()

	// An 08:00-10:00 event straddles the start of business hours; only
	// the schedulable 09:00-10:00 portion is a conflict.
	w := SearchWindow{
		Range: span(0, 0, 23, 0),
		Hours: BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour},
	}
	events := map[string][]CalendarEvent{
		"alice@example.com": {
			{ID: "early", Interval: span(8, 0, 10, 0), ResponseStatus: "accepted"},
		},
	}

	records := ExplainConflicts(w, events, policy)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(records), records)
	}
	if !records[0].Overlap.Equal(span(9, 0, 10, 0)) {
		t.Errorf("Overlap = %v, want 09:00-10:00", records[0].Overlap)
	}
}

func TestExplainConflictsCapped(t *testing.T) {
	policy := DefaultBlockingPolicy()

	// Alice alone has enough overlaps to blow the cap; Bob has one
	// conflict late in the sort order. The capped report must still
	// include Bob.
	aliceEvents := make([]CalendarEvent, 0, MaxConflictRecords+5)
	for i := 0; i < MaxConflictRecords+5; i++ {
		aliceEvents = append(aliceEvents, CalendarEvent{
			ID:             string(rune('a'+i%26)) + "-slot",
			Interval:       span(9, i, 9, i+1),
			ResponseStatus: "accepted",
		})
	}
	events := map[string][]CalendarEvent{
		"alice@example.com": aliceEvents,
		"zed@example.com": {
			{ID: "zed-1", Interval: span(9, 0, 10, 0), ResponseStatus: "accepted"},
		},
	}

	records := ExplainConflicts(window(9, 10), events, policy)
	if len(records) > MaxConflictRecords {
		t.Fatalf("got %d records, want at most %d", len(records), MaxConflictRecords)
	}

	foundZed := false
	for _, rec := range records {
		if rec.Attendee == "zed@example.com" {
			foundZed = true
		}
	}
	if !foundZed {
		t.Error("capped report must keep at least one record per conflicting attendee")
	}
}

func TestExplainConflictsDeterministicOrder(t *testing.T) {
	policy := DefaultBlockingPolicy()

	events := map[string][]CalendarEvent{
		"bob@example.com": {
			{ID: "b2", Interval: span(15, 30, 16, 0), ResponseStatus: "accepted"},
			{ID: "b1", Interval: span(15, 0, 15, 30), ResponseStatus: "accepted"},
		},
		"alice@example.com": {
			{ID: "a1", Interval: span(15, 0, 16, 0), ResponseStatus: "accepted"},
		},
	}

	records := ExplainConflicts(window(15, 16), events, policy)
	wantIDs := []string{"a1", "b1", "b2"}
	if len(records) != len(wantIDs) {
		t.Fatalf("got %d records, want %d", len(records), len(wantIDs))
	}
	for i, id := range wantIDs {
		if records[i].EventID != id {
			t.Errorf("records[%d].EventID = %q, want %q", i, records[i].EventID, id)
		}
	}
}
