package scheduling_tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/semaphore"

	"github.com/teemow/meetfinder/internal/calendar"
	"github.com/teemow/meetfinder/internal/google"
	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/schedule"
	"github.com/teemow/meetfinder/internal/server"
	"github.com/teemow/meetfinder/internal/tools/common"
)

// Default search window when the caller gives no explicit range.
const defaultWindowDays = 7

// Default business hours applied when the caller does not override them.
const (
	defaultWorkdayStart = 9 * time.Hour
	defaultWorkdayEnd   = 17 * time.Hour
)

// fetchLimiter bounds in-flight calendar fetches across all concurrent
// tool invocations. Engines are built per call, so the bound has to live
// at package scope to hold process-wide.
var fetchLimiter = semaphore.NewWeighted(schedule.DefaultMaxConcurrentFetches)

// RegisterSchedulingTools registers the scheduling tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	findTimeTool := mcp.NewTool("scheduling_find_time",
		mcp.WithDescription("Find ranked candidate time slots for a meeting with one or more attendees"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Start of the search range (RFC3339, e.g. '2026-03-02T09:00:00Z'). Defaults to now."),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the search range (RFC3339). Defaults to 7 days after timeMin."),
		),
		mcp.WithString("preferredTime",
			mcp.Description("Preferred meeting time (RFC3339). Slots near this time rank higher."),
		),
		mcp.WithString("workdayStart",
			mcp.Description("Earliest slot time of day as HH:MM (default 09:00)"),
		),
		mcp.WithString("workdayEnd",
			mcp.Description("Latest slot end time of day as HH:MM (default 17:00)"),
		),
		mcp.WithNumber("maxCandidates",
			mcp.Description("Maximum number of candidate slots to return (default: 20)"),
		),
		mcp.WithBoolean("blockOnAllDay",
			mcp.Description("Treat all-day events as busy time (default: false)"),
		),
		mcp.WithString("organizer",
			mcp.Description("Email address of an attendee whose calendar the account owns. Fetched with full event detail instead of free/busy."),
		),
	)

	s.AddTool(findTimeTool, common.InstrumentedToolHandlerWithService(
		"scheduling_find_time", "calendar", "find_time", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindTime(ctx, request, sc)
		},
	))

	queryFreeBusyTool := mcp.NewTool("scheduling_query_freebusy",
		mcp.WithDescription("Check raw free/busy information for one or more calendars in a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g. '2026-03-02T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format)"),
		),
		mcp.WithString("calendars",
			mcp.Required(),
			mcp.Description("Comma-separated list of calendar IDs or email addresses to check"),
		),
	)

	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandlerWithService(
		"scheduling_query_freebusy", "calendar", "query_freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		},
	))

	explainConflictsTool := mcp.NewTool("scheduling_explain_conflicts",
		mcp.WithDescription("Explain which events block a specific meeting window for each attendee"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the window to explain (RFC3339)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the window to explain (RFC3339)"),
		),
		mcp.WithBoolean("blockOnAllDay",
			mcp.Description("Treat all-day events as busy time (default: false)"),
		),
		mcp.WithString("organizer",
			mcp.Description("Email address of an attendee whose calendar the account owns"),
		),
	)

	s.AddTool(explainConflictsTool, common.InstrumentedToolHandlerWithService(
		"scheduling_explain_conflicts", "calendar", "explain_conflicts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExplainConflicts(ctx, request, sc)
		},
	))

	return nil
}

// getCalendarClient retrieves or creates a calendar client for the specified account
func getCalendarClient(ctx context.Context, account string, sc *server.ServerContext) (*calendar.Client, error) {
	client := sc.CalendarClientForAccount(account)
	if client == nil {
		if !calendar.HasTokenForAccount(account) {
			return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
		}

		var err error
		client, err = calendar.NewClientForAccount(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
		}
		sc.SetCalendarClientForAccount(account, client)
	}
	return client, nil
}

func newEngine(ctx context.Context, account string, sc *server.ServerContext, owned []string, policy schedule.BlockingPolicy) (*schedule.Engine, error) {
	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return nil, err
	}
	store := calendar.NewStore(client, owned, slog.Default())
	return schedule.NewEngine(schedule.EngineConfig{
		Store:        store,
		Policy:       policy,
		Logger:       slog.Default(),
		FetchLimiter: fetchLimiter,
	})
}

func handleFindTime(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	attendees, errMsg := parseAttendees(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	durationMinutes, ok := args["durationMinutes"].(float64)
	if !ok || durationMinutes <= 0 {
		return mcp.NewToolResultError("durationMinutes is required and must be positive"), nil
	}
	duration := time.Duration(durationMinutes) * time.Minute

	timeMin := time.Now()
	if s, ok := args["timeMin"].(string); ok && s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
		}
		timeMin = parsed
	}

	timeMax := timeMin.AddDate(0, 0, defaultWindowDays)
	if s, ok := args["timeMax"].(string); ok && s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
		}
		timeMax = parsed
	}

	windowRange, err := interval.New(timeMin, timeMax)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid search range: %v", err)), nil
	}

	hours := schedule.BusinessHours{Start: defaultWorkdayStart, End: defaultWorkdayEnd}
	if s, ok := args["workdayStart"].(string); ok && s != "" {
		hours.Start, err = parseClock(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid workdayStart: %v", err)), nil
		}
	}
	if s, ok := args["workdayEnd"].(string); ok && s != "" {
		hours.End, err = parseClock(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid workdayEnd: %v", err)), nil
		}
	}

	query := schedule.AvailabilityQuery{
		Attendees: attendees,
		Duration:  duration,
		Window:    schedule.SearchWindow{Range: windowRange, Hours: hours},
	}

	if maxVal, ok := args["maxCandidates"].(float64); ok && maxVal > 0 {
		query.MaxCandidates = int(maxVal)
	}

	if s, ok := args["preferredTime"].(string); ok && s != "" {
		preferred, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid preferredTime format: %v", err)), nil
		}
		query.PreferredTime = &preferred
	}

	policy := schedule.DefaultBlockingPolicy()
	if blockAllDay, ok := args["blockOnAllDay"].(bool); ok {
		policy.BlockOnAllDay = blockAllDay
	}

	engine, err := newEngine(ctx, account, sc, ownedCalendars(args), policy)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	started := time.Now()
	result, err := engine.Schedule(ctx, query)
	recordSchedulingMetrics(ctx, sc, result, time.Since(started))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scheduling query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(renderResult(result, duration)), nil
}

// recordSchedulingMetrics records the query outcome and any per-attendee
// fetch failures. No-op when instrumentation is disabled.
func recordSchedulingMetrics(ctx context.Context, sc *server.ServerContext, result schedule.Result, elapsed time.Duration) {
	metrics := sc.Metrics()
	if metrics == nil {
		return
	}
	metrics.RecordSchedulingQuery(ctx, string(result.Outcome), result.Partial(), len(result.Candidates), elapsed)
	for _, w := range result.Warnings {
		metrics.RecordAttendeeFetchFailure(ctx, w.Reason)
	}
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	timeMinStr, ok := args["timeMin"].(string)
	if !ok || timeMinStr == "" {
		return mcp.NewToolResultError("timeMin is required"), nil
	}
	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
	}

	timeMaxStr, ok := args["timeMax"].(string)
	if !ok || timeMaxStr == "" {
		return mcp.NewToolResultError("timeMax is required"), nil
	}
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
	}

	calendarsStr, ok := args["calendars"].(string)
	if !ok || calendarsStr == "" {
		return mcp.NewToolResultError("calendars is required"), nil
	}
	calendars := splitList(calendarsStr)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	freeBusyInfos, err := client.QueryFreeBusy(ctx, timeMin, timeMax, calendars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Free/Busy information for %d calendar(s):\n\n", len(freeBusyInfos))
	for _, info := range freeBusyInfos {
		fmt.Fprintf(&b, "Calendar: %s\n", info.Calendar)

		if len(info.Errors) > 0 {
			fmt.Fprintf(&b, "  Errors: %s\n", strings.Join(info.Errors, ", "))
		}

		if len(info.Busy) == 0 {
			b.WriteString("  Status: FREE for entire range\n")
		} else {
			fmt.Fprintf(&b, "  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				fmt.Fprintf(&b, "  %d. %s to %s\n",
					i+1,
					busy.Start.Format("2006-01-02 15:04"),
					busy.End.Format("2006-01-02 15:04"))
			}
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleExplainConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	attendees, errMsg := parseAttendees(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	timeMinStr, ok := args["timeMin"].(string)
	if !ok || timeMinStr == "" {
		return mcp.NewToolResultError("timeMin is required"), nil
	}
	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
	}

	timeMaxStr, ok := args["timeMax"].(string)
	if !ok || timeMaxStr == "" {
		return mcp.NewToolResultError("timeMax is required"), nil
	}
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
	}

	windowRange, err := interval.New(timeMin, timeMax)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid window: %v", err)), nil
	}

	policy := schedule.DefaultBlockingPolicy()
	if blockAllDay, ok := args["blockOnAllDay"].(bool); ok {
		policy.BlockOnAllDay = blockAllDay
	}

	engine, err := newEngine(ctx, account, sc, ownedCalendars(args), policy)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := schedule.AvailabilityQuery{
		Attendees: attendees,
		Duration:  windowRange.Duration(),
		Window: schedule.SearchWindow{
			Range: windowRange,
			// Zero hours: an explicit window is explained as-is, with no
			// business-hours mask and no weekday restriction.
		},
	}

	conflicts, warnings, err := engine.ExplainWindow(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to explain conflicts: %v", err)), nil
	}

	var b strings.Builder
	if len(conflicts) == 0 {
		fmt.Fprintf(&b, "No blocking events between %s and %s.\n",
			windowRange.Start.Format(time.RFC3339), windowRange.End.Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "Found %d blocking event(s) between %s and %s:\n\n",
			len(conflicts),
			windowRange.Start.Format(time.RFC3339), windowRange.End.Format(time.RFC3339))
		b.WriteString(renderConflicts(conflicts))
	}
	b.WriteString(renderWarnings(warnings))

	return mcp.NewToolResultText(b.String()), nil
}

// ownedCalendars returns the calendars fetched with full event detail.
// Only the optional organizer argument qualifies; all other attendees go
// through the free/busy API.
func ownedCalendars(args map[string]interface{}) []string {
	if organizer, ok := args["organizer"].(string); ok && organizer != "" {
		return []string{strings.TrimSpace(organizer)}
	}
	return nil
}

func parseAttendees(args map[string]interface{}) ([]string, string) {
	attendeesStr, ok := args["attendees"].(string)
	if !ok || attendeesStr == "" {
		return nil, "attendees is required"
	}
	return splitList(attendeesStr), ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseClock parses a HH:MM time of day into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func renderResult(result schedule.Result, duration time.Duration) string {
	var b strings.Builder

	switch result.Outcome {
	case schedule.OutcomeSucceeded:
		fmt.Fprintf(&b, "Found %d candidate slot(s) for a %d minute meeting:\n\n",
			len(result.Candidates), int(duration.Minutes()))
		for i, candidate := range result.Candidates {
			fmt.Fprintf(&b, "%d. %s to %s (confidence %.2f)\n",
				i+1,
				candidate.Interval.Start.Format("Mon, Jan 2 15:04 MST"),
				candidate.Interval.End.Format("15:04 MST"),
				candidate.Confidence)
		}
	case schedule.OutcomeConflicted:
		b.WriteString("No slot of the requested duration is free for all attendees.\n")
		if len(result.Conflicts) > 0 {
			b.WriteString("\nBlocking events:\n")
			b.WriteString(renderConflicts(result.Conflicts))
		}
	default:
		fmt.Fprintf(&b, "Scheduling failed: %v\n", result.Err)
	}

	b.WriteString(renderWarnings(result.Warnings))
	return b.String()
}

func renderConflicts(conflicts []schedule.ConflictRecord) string {
	var b strings.Builder
	for i, c := range conflicts {
		title := c.Title
		if title == "" {
			title = "(busy)"
		}
		fmt.Fprintf(&b, "%d. %s: %s from %s to %s\n",
			i+1,
			c.Attendee,
			title,
			c.Overlap.Start.Format("Mon, Jan 2 15:04"),
			c.Overlap.End.Format("15:04"))
	}
	return b.String()
}

func renderWarnings(warnings []schedule.AttendeeWarning) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nWarnings:\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "  - %s\n", w.String())
	}
	return b.String()
}
