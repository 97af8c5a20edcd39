package interval

import (
	"fmt"
	"sort"
	"time"
)

// Interval is an immutable half-open time range [Start, End).
// Start is always strictly before End; zero-length intervals are rejected
// at construction.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New creates an Interval, validating that start is strictly before end.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// MustNew creates an Interval and panics on invalid bounds.
// Intended for tests and fixtures with known-good values.
func MustNew(start, end time.Time) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsZero reports whether the interval is the zero value.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Contains reports whether t falls within [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that merely touch (one ends exactly when the other starts)
// do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Touches reports whether two intervals overlap or are adjacent.
// Adjacency matters for merging: back-to-back busy blocks must not leave
// a zero-width usable gap between them.
func (iv Interval) Touches(other Interval) bool {
	return !iv.Start.After(other.End) && !other.Start.After(iv.End)
}

// Intersect returns the overlapping portion of two intervals.
// The second return value is false when the intervals do not overlap.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	if !iv.Overlaps(other) {
		return Interval{}, false
	}
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	return Interval{Start: start, End: end}, true
}

// Within reports whether iv lies entirely inside other.
func (iv Interval) Within(other Interval) bool {
	return !iv.Start.Before(other.Start) && !iv.End.After(other.End)
}

// Equal reports whether two intervals cover the same instants.
// Timestamp comparison is exact; there is no epsilon tolerance.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// String formats the interval for logs and error messages.
func (iv Interval) String() string {
	return iv.Start.Format(time.RFC3339) + "/" + iv.End.Format(time.RFC3339)
}

// MergeAll merges a set of intervals into a sorted, pairwise disjoint,
// non-adjacent sequence. Touching intervals are coalesced. The input is
// not modified; the result is newly allocated.
//
// Intervals are sorted by start ascending with ties broken by end
// ascending, then swept once, so the whole operation is O(n log n).
func MergeAll(spans []Interval) []Interval {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Interval, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		// Touching counts as overlapping so adjacent spans collapse.
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// Clip restricts each span to the window, dropping spans that fall
// entirely outside it. The input must not be assumed sorted.
func Clip(spans []Interval, window Interval) []Interval {
	var clipped []Interval
	for _, span := range spans {
		if cut, ok := span.Intersect(window); ok {
			clipped = append(clipped, cut)
		}
	}
	return clipped
}

// Gaps returns the free intervals inside window that are not covered by
// the merged spans. The spans must already be merged (sorted, disjoint,
// non-adjacent) as produced by MergeAll; spans outside the window are
// ignored.
func Gaps(merged []Interval, window Interval) []Interval {
	var gaps []Interval
	cursor := window.Start
	for _, span := range merged {
		if !span.End.After(window.Start) || !span.Start.Before(window.End) {
			continue
		}
		if span.Start.After(cursor) {
			gaps = append(gaps, Interval{Start: cursor, End: span.Start})
		}
		if span.End.After(cursor) {
			cursor = span.End
		}
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}
	return gaps
}
