package scheduling_tools

import (
	"testing"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/schedule"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"09:00", 9 * time.Hour, false},
		{"17:30", 17*time.Hour + 30*time.Minute, false},
		{"00:00", 0, false},
		{"23:59", 23*time.Hour + 59*time.Minute, false},
		{"9am", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseClock(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClock(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseClock(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single entry",
			input:    "alice@example.com",
			expected: []string{"alice@example.com"},
		},
		{
			name:     "multiple with spaces",
			input:    "alice@example.com, bob@example.com ,carol@example.com",
			expected: []string{"alice@example.com", "bob@example.com", "carol@example.com"},
		},
		{
			name:     "empty segments dropped",
			input:    "alice@example.com,,  ,bob@example.com",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestOwnedCalendars(t *testing.T) {
	if got := ownedCalendars(map[string]interface{}{}); got != nil {
		t.Errorf("expected nil owned calendars, got %v", got)
	}

	got := ownedCalendars(map[string]interface{}{"organizer": " alice@example.com "})
	if len(got) != 1 || got[0] != "alice@example.com" {
		t.Errorf("ownedCalendars() = %v, want [alice@example.com]", got)
	}
}

func TestRenderResultSucceeded(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	result := schedule.Result{
		Outcome: schedule.OutcomeSucceeded,
		Candidates: []schedule.SlotCandidate{
			{Interval: interval.MustNew(start, start.Add(time.Hour)), Confidence: 0.85},
		},
	}

	text := renderResult(result, time.Hour)

	if !contains(text, "1 candidate slot(s)") {
		t.Errorf("rendered result missing candidate count: %q", text)
	}
	if !contains(text, "confidence 0.85") {
		t.Errorf("rendered result missing confidence: %q", text)
	}
	if contains(text, "Warnings") {
		t.Errorf("rendered result should not mention warnings: %q", text)
	}
}

func TestRenderResultConflicted(t *testing.T) {
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	result := schedule.Result{
		Outcome: schedule.OutcomeConflicted,
		Conflicts: []schedule.ConflictRecord{
			{
				Attendee: "bob@example.com",
				EventID:  "evt-1",
				Title:    "Design review",
				Overlap:  interval.MustNew(start, start.Add(30*time.Minute)),
			},
		},
		Warnings: []schedule.AttendeeWarning{
			{Attendee: "carol@example.com", Reason: "calendar store rate limited"},
		},
	}

	text := renderResult(result, time.Hour)

	if !contains(text, "No slot of the requested duration") {
		t.Errorf("rendered result missing conflict message: %q", text)
	}
	if !contains(text, "Design review") {
		t.Errorf("rendered result missing conflict title: %q", text)
	}
	if !contains(text, "carol@example.com") {
		t.Errorf("rendered result missing warning attendee: %q", text)
	}
}

func TestRenderConflictsUntitledEvent(t *testing.T) {
	start := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	text := renderConflicts([]schedule.ConflictRecord{
		{
			Attendee: "bob@example.com",
			EventID:  "bob@example.com/busy/0",
			Overlap:  interval.MustNew(start, start.Add(time.Hour)),
		},
	})

	if !contains(text, "(busy)") {
		t.Errorf("untitled conflict should render as (busy): %q", text)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
