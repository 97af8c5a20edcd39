package schedule

import (
	"testing"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
)

func busy(attendee string, spans ...interval.Interval) BusySet {
	return BusySet{Attendee: attendee, Intervals: interval.MergeAll(spans)}
}

func window(startHour, endHour int) SearchWindow {
	return SearchWindow{Range: span(startHour, 0, endHour, 0)}
}

func TestResolveSingleAttendee(t *testing.T) {
	resolver := NewResolver()

	// One event 09:00-09:30 in a 09:00-17:00 window leaves a single
	// free block from 09:30 onward.
	free := resolver.Resolve(window(9, 17), []BusySet{
		busy("alice@example.com", span(9, 0, 9, 30)),
	}, time.Hour)

	want := []interval.Interval{span(9, 30, 17, 0)}
	if len(free) != len(want) {
		t.Fatalf("Resolve() returned %d intervals, want %d: %v", len(free), len(want), free)
	}
	if !free[0].Equal(want[0]) {
		t.Errorf("Resolve()[0] = %v, want %v", free[0], want[0])
	}
}

func TestResolveIntersectsAttendees(t *testing.T) {
	resolver := NewResolver()

	free := resolver.Resolve(window(9, 17), []BusySet{
		busy("alice@example.com", span(9, 0, 11, 0), span(14, 0, 15, 0)),
		busy("bob@example.com", span(10, 0, 12, 0), span(16, 0, 17, 0)),
	}, 30*time.Minute)

	want := []interval.Interval{span(12, 0, 14, 0), span(15, 0, 16, 0)}
	if len(free) != len(want) {
		t.Fatalf("Resolve() returned %d intervals, want %d: %v", len(free), len(want), free)
	}
	for i := range free {
		if !free[i].Equal(want[i]) {
			t.Errorf("Resolve()[%d] = %v, want %v", i, free[i], want[i])
		}
	}
}

func TestResolveFiltersShortGaps(t *testing.T) {
	resolver := NewResolver()

	// The 30-minute gap between the blocks is too short for an hour.
	free := resolver.Resolve(window(9, 17), []BusySet{
		busy("alice@example.com", span(10, 0, 11, 0), span(11, 30, 16, 30)),
	}, time.Hour)

	want := []interval.Interval{span(9, 0, 10, 0)}
	if len(free) != len(want) {
		t.Fatalf("Resolve() returned %d intervals, want %d: %v", len(free), len(want), free)
	}
	if !free[0].Equal(want[0]) {
		t.Errorf("Resolve()[0] = %v, want %v", free[0], want[0])
	}
}

func TestResolveFullyBooked(t *testing.T) {
	resolver := NewResolver()

	var spans []interval.Interval
	for h := 9; h < 17; h++ {
		spans = append(spans, span(h, 0, h+1, 0))
	}

	free := resolver.Resolve(window(9, 17), []BusySet{
		busy("alice@example.com", spans...),
	}, 2*time.Hour)

	if len(free) != 0 {
		t.Errorf("expected no free intervals, got %v", free)
	}
}

func TestResolveNoAttendeeData(t *testing.T) {
	resolver := NewResolver()

	free := resolver.Resolve(window(9, 17), []BusySet{
		{Attendee: "alice@example.com"},
	}, time.Hour)

	want := []interval.Interval{span(9, 0, 17, 0)}
	if len(free) != 1 || !free[0].Equal(want[0]) {
		t.Errorf("Resolve() = %v, want %v", free, want)
	}
}

func TestBusinessMask(t *testing.T) {
	hours := BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour}

	t.Run("masks nights within multi-day window", func(t *testing.T) {
		// Monday 2026-03-02 08:00 through Tuesday 18:00.
		rng := interval.MustNew(
			time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC),
		)
		mask := BusinessMask(SearchWindow{Range: rng, Hours: hours})

		want := []interval.Interval{
			interval.MustNew( // Monday pre-open
				time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
				time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
			),
			interval.MustNew( // Monday close to Tuesday open
				time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC),
				time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
			),
			interval.MustNew(
				time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
			),
			interval.MustNew( // Tuesday close to window end
				time.Date(2026, time.March, 3, 17, 0, 0, 0, time.UTC),
				time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC),
			),
		}
		if len(mask) != len(want) {
			t.Fatalf("BusinessMask() returned %d intervals, want %d: %v", len(mask), len(want), mask)
		}
		for i := range mask {
			if !mask[i].Equal(want[i]) {
				t.Errorf("BusinessMask()[%d] = %v, want %v", i, mask[i], want[i])
			}
		}
	})

	t.Run("masks whole weekend days", func(t *testing.T) {
		// Saturday 2026-03-07 00:00 through Sunday 24:00.
		rng := interval.MustNew(
			time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		)
		mask := BusinessMask(SearchWindow{Range: rng, Hours: hours})
		merged := interval.MergeAll(mask)

		if len(merged) != 1 || !merged[0].Equal(rng) {
			t.Errorf("weekend should be fully masked, got %v", merged)
		}
	})

	t.Run("no hours configured means no mask", func(t *testing.T) {
		if mask := BusinessMask(window(9, 17)); mask != nil {
			t.Errorf("expected nil mask, got %v", mask)
		}
	})
}

func TestResolveAppliesBusinessMask(t *testing.T) {
	resolver := NewResolver()

	// Window covers the whole day; only business hours survive.
	rng := interval.MustNew(
		time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
	)
	win := SearchWindow{
		Range: rng,
		Hours: BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour},
	}

	free := resolver.Resolve(win, []BusySet{
		busy("alice@example.com", span(12, 0, 13, 0)),
	}, time.Hour)

	want := []interval.Interval{span(9, 0, 12, 0), span(13, 0, 17, 0)}
	if len(free) != len(want) {
		t.Fatalf("Resolve() returned %d intervals, want %d: %v", len(free), len(want), free)
	}
	for i := range free {
		if !free[i].Equal(want[i]) {
			t.Errorf("Resolve()[%d] = %v, want %v", i, free[i], want[i])
		}
	}
}
