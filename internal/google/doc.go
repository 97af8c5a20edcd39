// Package google provides OAuth2 authentication and token management for
// the Google Calendar API.
//
// Tokens are stored per named account under the user cache directory, so
// one machine can hold authorizations for several Google identities
// (work, personal). The TokenProvider interface abstracts token storage
// so tests and alternative transports can supply tokens without touching
// the filesystem.
//
// All requested scopes are read-only: the scheduler inspects calendars
// and free/busy data but never modifies them.
package google
