package schedule

import (
	"sort"
	"time"

	"github.com/teemow/meetfinder/internal/interval"
)

// Granularity is the grid candidate slots snap to. Calendar UIs round
// to the quarter hour, so finer starts only produce odd-looking
// proposals.
const Granularity = 15 * time.Minute

// DefaultMaxCandidates bounds the result size when the query does not
// set a limit.
const DefaultMaxCandidates = 20

// Ranking weights. Proximity to the preferred time dominates; boundary
// alignment breaks the bulk of remaining ties; earliness orders the
// rest. When no preferred time is given its weight moves to earliness,
// which preserves "earlier is better" as the primary signal.
const (
	weightPreferred = 0.5
	weightAlignment = 0.3
	weightEarliness = 0.2
)

// Ranker turns free intervals into a scored, ordered list of candidate
// slots. Scoring is deterministic: the same inputs always produce the
// same ordering.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank enumerates duration-length slots inside the free intervals, scores
// each one, and returns the top candidates ordered by score descending
// with ties broken by earlier start. Candidate starts are each interval's
// own start plus every granularity boundary after it; an off-grid start
// is still proposed, just with a lower alignment score. The result is
// truncated to the query's MaxCandidates (DefaultMaxCandidates when
// unset).
func (r *Ranker) Rank(query AvailabilityQuery, free []interval.Interval) []SlotCandidate {
	limit := query.MaxCandidates
	if limit == 0 {
		limit = DefaultMaxCandidates
	}

	var candidates []SlotCandidate
	for _, gap := range free {
		// The gap's own start is a candidate in its own right, so a free
		// interval barely longer than the duration is not lost to grid
		// rounding. An aligned start is covered by the grid walk below.
		if alignUp(gap.Start).After(gap.Start) && !gap.Start.Add(query.Duration).After(gap.End) {
			slot := interval.Interval{Start: gap.Start, End: gap.Start.Add(query.Duration)}
			candidates = append(candidates, SlotCandidate{
				Interval:   slot,
				Confidence: r.score(query, slot),
			})
		}
		for start := alignUp(gap.Start); !start.Add(query.Duration).After(gap.End); start = start.Add(Granularity) {
			slot := interval.Interval{Start: start, End: start.Add(query.Duration)}
			candidates = append(candidates, SlotCandidate{
				Interval:   slot,
				Confidence: r.score(query, slot),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Interval.Start.Before(candidates[j].Interval.Start)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// score combines preferred-time proximity, boundary alignment and
// earliness into a confidence in [0, 1].
func (r *Ranker) score(query AvailabilityQuery, slot interval.Interval) float64 {
	alignment := alignmentScore(slot.Start)
	earliness := earlinessScore(query.Window.Range, slot.Start)

	if query.PreferredTime == nil {
		return (weightPreferred+weightEarliness)*earliness + weightAlignment*alignment
	}
	proximity := proximityScore(query.Window.Range, *query.PreferredTime, slot.Start)
	return weightPreferred*proximity + weightAlignment*alignment + weightEarliness*earliness
}

// alignmentScore rewards starts that land on coarse clock boundaries.
func alignmentScore(start time.Time) float64 {
	offset := time.Duration(start.Minute())*time.Minute + time.Duration(start.Second())*time.Second
	switch {
	case offset == 0:
		return 1.0
	case offset%(30*time.Minute) == 0:
		return 0.8
	case offset%Granularity == 0:
		return 0.6
	default:
		return 0.2
	}
}

// earlinessScore maps a start within the window to [0, 1], 1 at the
// window start.
func earlinessScore(window interval.Interval, start time.Time) float64 {
	span := window.Duration()
	if span <= 0 {
		return 0
	}
	pos := float64(start.Sub(window.Start)) / float64(span)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return 1 - pos
}

// proximityScore maps distance from the preferred instant to [0, 1],
// 1 at the preferred time, 0 a full window span away.
func proximityScore(window interval.Interval, preferred, start time.Time) float64 {
	span := window.Duration()
	if span <= 0 {
		return 0
	}
	distance := start.Sub(preferred)
	if distance < 0 {
		distance = -distance
	}
	score := 1 - float64(distance)/float64(span)
	if score < 0 {
		return 0
	}
	return score
}

// alignUp rounds t up to the next granularity boundary.
func alignUp(t time.Time) time.Time {
	aligned := t.Truncate(Granularity)
	if aligned.Before(t) {
		aligned = aligned.Add(Granularity)
	}
	return aligned
}
