package schedule

import (
	"sort"

	"github.com/teemow/meetfinder/internal/interval"
)

// MaxConflictRecords bounds the size of a conflict report. A fully
// booked week can produce hundreds of overlaps; past this point more
// records stop being informative.
const MaxConflictRecords = 20

// ExplainConflicts reports the blocking events that overlap the window's
// schedulable time, one record per attendee-event overlap. It works on
// the raw fetched events rather than merged busy sets because merging
// discards event identity, and a conflict report is only useful when it
// can name the meeting that is in the way.
//
// Events are intersected against the business-hours-permitted portions
// of the window, so busy time that falls entirely outside any lawful
// slot is never reported as a conflict. An event spanning several
// business days yields one record per day's overlap.
//
// Records are ordered by attendee, then overlap start, then event ID,
// so the report is deterministic regardless of fetch order. Reports are
// capped at MaxConflictRecords; a capped report still names at least
// one blocking event for every attendee that has one.
func ExplainConflicts(window SearchWindow, events map[string][]CalendarEvent, policy BlockingPolicy) []ConflictRecord {
	permitted := interval.Gaps(interval.MergeAll(BusinessMask(window)), window.Range)

	var records []ConflictRecord
	for attendee, attendeeEvents := range events {
		for _, event := range attendeeEvents {
			if event.Interval.IsZero() || !event.Interval.Start.Before(event.Interval.End) {
				continue
			}
			if !policy.Blocks(event) {
				continue
			}
			for _, open := range permitted {
				overlap, ok := event.Interval.Intersect(open)
				if !ok {
					continue
				}
				records = append(records, ConflictRecord{
					Attendee: attendee,
					EventID:  event.ID,
					Title:    event.Title,
					Overlap:  overlap,
				})
			}
		}
	}

	sortConflicts(records)
	return capConflicts(records, MaxConflictRecords)
}

func sortConflicts(records []ConflictRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Attendee != records[j].Attendee {
			return records[i].Attendee < records[j].Attendee
		}
		if !records[i].Overlap.Start.Equal(records[j].Overlap.Start) {
			return records[i].Overlap.Start.Before(records[j].Overlap.Start)
		}
		return records[i].EventID < records[j].EventID
	})
}

// capConflicts truncates a sorted record list to max entries while
// keeping every attendee represented: the first record of each attendee
// is reserved before the remaining budget fills in order.
func capConflicts(records []ConflictRecord, max int) []ConflictRecord {
	if len(records) <= max {
		return records
	}

	keep := make([]bool, len(records))
	kept := 0

	seen := make(map[string]bool)
	for i, rec := range records {
		if !seen[rec.Attendee] {
			seen[rec.Attendee] = true
			keep[i] = true
			kept++
		}
	}

	// The per-attendee guarantee wins over the cap when there are more
	// conflicting attendees than budget.
	for i := range records {
		if kept >= max {
			break
		}
		if !keep[i] {
			keep[i] = true
			kept++
		}
	}

	capped := make([]ConflictRecord, 0, kept)
	for i, rec := range records {
		if keep[i] {
			capped = append(capped, rec)
		}
	}
	return capped
}
