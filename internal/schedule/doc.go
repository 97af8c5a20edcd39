// Package schedule implements the meeting availability engine: given a
// set of attendees, a desired duration and a search window, it finds
// ranked candidate slots where everyone is free, or explains which
// events are in the way.
//
// The pipeline is deterministic. Calendar events become per-attendee
// busy sets (merged half-open intervals), the resolver complements the
// union of busy time plus the business-hours mask against the window,
// and the ranker enumerates and scores duration-length slots on a
// 15-minute grid. The same inputs always produce the same candidate
// ordering.
//
// Calendar fetches run concurrently with bounded parallelism and a
// per-fetch timeout. A single attendee's fetch failure degrades the
// result to a partial one with a warning; the query only fails outright
// when it is malformed or no attendee's calendar could be read.
package schedule
