package schedule

import (
	"fmt"
	"log/slog"

	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/logging"
)

// BuildBusySet normalizes one attendee's raw events into a merged busy
// timeline. Events excluded by the blocking policy are skipped; events
// with malformed intervals are dropped with a warning. When the majority
// of an attendee's events are malformed the data is considered
// untrustworthy and an error wrapping ErrInvalidEvent is returned.
func BuildBusySet(attendee string, events []CalendarEvent, policy BlockingPolicy, logger *slog.Logger) (BusySet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	spans := make([]interval.Interval, 0, len(events))
	dropped := 0
	for _, event := range events {
		if event.Interval.IsZero() || !event.Interval.Start.Before(event.Interval.End) {
			dropped++
			logger.Warn("dropping malformed calendar event",
				logging.AttendeeAttr(attendee),
				slog.String(logging.KeyEventID, event.ID),
			)
			continue
		}
		if !policy.Blocks(event) {
			continue
		}
		spans = append(spans, event.Interval)
	}

	if dropped > 0 && dropped*2 > len(events) {
		return BusySet{}, fmt.Errorf("%w: %d of %d events for %s are malformed",
			ErrInvalidEvent, dropped, len(events), attendee)
	}

	return BusySet{
		Attendee:  attendee,
		Intervals: interval.MergeAll(spans),
	}, nil
}

// IsFree reports whether the attendee has no busy time overlapping iv.
// Binary search over the sorted busy timeline, O(log n).
func (b BusySet) IsFree(iv interval.Interval) bool {
	lo, hi := 0, len(b.Intervals)
	for lo < hi {
		mid := (lo + hi) / 2
		if b.Intervals[mid].End.After(iv.Start) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo == len(b.Intervals) || !b.Intervals[lo].Overlaps(iv)
}

// Busy reports the portions of iv covered by this busy set.
func (b BusySet) Busy(iv interval.Interval) []interval.Interval {
	return interval.Clip(b.Intervals, iv)
}
