// Package calendar provides a read-only client for the Google Calendar
// API and adapts it to the scheduling engine's event store.
//
// The Store fetches full event detail for calendars the authorized
// account owns and falls back to the free/busy API for everyone else,
// translating Google API failures into the scheduling error taxonomy.
// A JSON-backed FixtureStore offers the same interface without network
// access for offline queries and tests.
//
// The client supports multi-account authentication using the Google
// OAuth2 flow; tokens are stored per named account.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := calendar.NewStore(client, []string{"me@example.com"}, nil)
//	events, err := store.FetchEvents(ctx, "me@example.com", window)
package calendar
