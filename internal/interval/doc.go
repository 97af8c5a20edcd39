// Package interval provides the half-open time interval primitive used
// throughout the scheduling engine.
//
// All intervals are half-open [Start, End): an event ending at 10:00 does
// not conflict with one starting at 10:00. Merging treats touching
// intervals as one, so back-to-back meetings never produce a zero-width
// free gap. Timestamp comparisons are exact down to sub-second precision,
// which keeps merge results deterministic and testable.
package interval
