// Package scheduling_tools provides MCP tools for meeting scheduling.
//
// Three tools are exposed:
//   - scheduling_find_time: ranked candidate slots for a meeting
//   - scheduling_query_freebusy: raw free/busy data for calendars
//   - scheduling_explain_conflicts: blocking events for a given window
//
// All tools accept an optional account argument for multi-account token
// management and degrade gracefully when individual attendee calendars
// cannot be fetched.
package scheduling_tools
