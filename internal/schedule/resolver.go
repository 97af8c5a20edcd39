package schedule

import (
	"time"

	"github.com/teemow/meetfinder/internal/interval"
)

// Resolver computes common free time across attendees. It is stateless;
// every call works purely on its inputs.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the intervals within the search window where every
// given attendee is free, each at least minDuration long. The window's
// business-hours mask is applied as synthetic busy time, so the union of
// all busy sets plus the mask is merged once and complemented against
// the window range. Equivalent to intersecting per-attendee free time
// but a single O(n log n) sweep over all spans.
//
// Resolve never invents free time outside the window and returns no
// interval shorter than minDuration.
func (r *Resolver) Resolve(window SearchWindow, sets []BusySet, minDuration time.Duration) []interval.Interval {
	var spans []interval.Interval
	for _, set := range sets {
		spans = append(spans, set.Intervals...)
	}
	spans = append(spans, BusinessMask(window)...)

	merged := interval.MergeAll(interval.Clip(spans, window.Range))

	var free []interval.Interval
	for _, gap := range interval.Gaps(merged, window.Range) {
		if gap.Duration() >= minDuration {
			free = append(free, gap)
		}
	}
	return free
}

// BusinessMask returns the portions of the window range that fall
// outside business hours, expressed as busy intervals. The mask covers
// nights, the time-of-day margins of each business day, and entire
// non-business days. Day boundaries follow the window start's location,
// so DST transitions shift the mask with the civil clock.
func BusinessMask(window SearchWindow) []interval.Interval {
	hours := window.Hours
	if hours.Start == 0 && hours.End == 0 {
		return nil
	}

	loc := window.Range.Start.Location()
	var mask []interval.Interval

	day := midnight(window.Range.Start, loc)
	for day.Before(window.Range.End) {
		next := midnight(day.AddDate(0, 0, 1), loc)

		if !hours.dayOf(day.Weekday()) {
			mask = appendClipped(mask, day, next, window.Range)
			day = next
			continue
		}

		open := day.Add(hours.Start)
		shut := day.Add(hours.End)
		mask = appendClipped(mask, day, open, window.Range)
		mask = appendClipped(mask, shut, next, window.Range)
		day = next
	}
	return mask
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func appendClipped(mask []interval.Interval, start, end time.Time, within interval.Interval) []interval.Interval {
	if !start.Before(end) {
		return mask
	}
	if cut, ok := (interval.Interval{Start: start, End: end}).Intersect(within); ok {
		mask = append(mask, cut)
	}
	return mask
}
