// Package resources provides MCP resources for exposing calendar data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the list of calendars visible to the authenticated account.
package resources
