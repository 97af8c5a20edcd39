package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetfinder/internal/calendar"
	"github.com/teemow/meetfinder/internal/google"
	"github.com/teemow/meetfinder/internal/interval"
	"github.com/teemow/meetfinder/internal/schedule"
)

func newFindCmd() *cobra.Command {
	var (
		account       string
		attendeesFlag string
		durationMin   int
		fromStr       string
		toStr         string
		preferredStr  string
		workdayStart  string
		workdayEnd    string
		maxCandidates int
		blockAllDay   bool
		organizer     string
		fixturePath   string
		freeBusyOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find meeting times that work for every attendee",
		Long: `Search the attendees' calendars for time slots where everyone is free
and print the best candidates, ranked by how soon they start and how
close they are to the preferred time.

Attendee calendars are read through the Google Calendar free/busy API.
Pass --organizer for an attendee whose calendar the account owns; that
calendar is fetched with full event detail so conflicts can be named.

With --fixture, events are read from a JSON file instead of the Google
API. No OAuth setup is needed in that mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			attendees := parseCommaSeparatedList(attendeesFlag)
			if len(attendees) == 0 {
				return fmt.Errorf("at least one attendee is required (use --attendees)")
			}
			if durationMin <= 0 {
				return fmt.Errorf("duration must be positive, got %d", durationMin)
			}

			from := time.Now()
			if fromStr != "" {
				parsed, err := time.Parse(time.RFC3339, fromStr)
				if err != nil {
					return fmt.Errorf("invalid --from value: %w", err)
				}
				from = parsed
			}

			to := from.AddDate(0, 0, 7)
			if toStr != "" {
				parsed, err := time.Parse(time.RFC3339, toStr)
				if err != nil {
					return fmt.Errorf("invalid --to value: %w", err)
				}
				to = parsed
			}

			windowRange, err := interval.New(from, to)
			if err != nil {
				return fmt.Errorf("invalid search range: %w", err)
			}

			hours := schedule.BusinessHours{Start: 9 * time.Hour, End: 17 * time.Hour}
			if workdayStart != "" {
				if hours.Start, err = parseClockFlag(workdayStart); err != nil {
					return fmt.Errorf("invalid --workday-start: %w", err)
				}
			}
			if workdayEnd != "" {
				if hours.End, err = parseClockFlag(workdayEnd); err != nil {
					return fmt.Errorf("invalid --workday-end: %w", err)
				}
			}

			query := schedule.AvailabilityQuery{
				Attendees:     attendees,
				Duration:      time.Duration(durationMin) * time.Minute,
				Window:        schedule.SearchWindow{Range: windowRange, Hours: hours},
				MaxCandidates: maxCandidates,
			}

			if preferredStr != "" {
				preferred, err := time.Parse(time.RFC3339, preferredStr)
				if err != nil {
					return fmt.Errorf("invalid --preferred value: %w", err)
				}
				query.PreferredTime = &preferred
			}

			policy := schedule.DefaultBlockingPolicy()
			policy.BlockOnAllDay = blockAllDay

			ctx := context.Background()
			store, err := buildEventStore(ctx, account, organizer, fixturePath)
			if err != nil {
				return err
			}

			engine, err := schedule.NewEngine(schedule.EngineConfig{
				Store:  store,
				Policy: policy,
				Logger: slog.Default(),
			})
			if err != nil {
				return err
			}

			if freeBusyOnly {
				sets, warnings, err := engine.FreeBusy(ctx, query)
				if err != nil {
					return err
				}
				printFreeBusy(cmd, sets, warnings)
				return nil
			}

			result, err := engine.Schedule(ctx, query)
			if err != nil {
				return err
			}

			printScheduleResult(cmd, result, query.Duration)
			if result.Outcome == schedule.OutcomeFailed {
				return fmt.Errorf("scheduling failed: %w", result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().StringVar(&attendeesFlag, "attendees", "", "Comma-separated attendee email addresses (required)")
	cmd.Flags().IntVar(&durationMin, "duration", 30, "Meeting duration in minutes")
	cmd.Flags().StringVar(&fromStr, "from", "", "Start of the search range (RFC3339, default: now)")
	cmd.Flags().StringVar(&toStr, "to", "", "End of the search range (RFC3339, default: 7 days after --from)")
	cmd.Flags().StringVar(&preferredStr, "preferred", "", "Preferred meeting time (RFC3339); nearby slots rank higher")
	cmd.Flags().StringVar(&workdayStart, "workday-start", "", "Earliest slot time of day as HH:MM (default 09:00)")
	cmd.Flags().StringVar(&workdayEnd, "workday-end", "", "Latest slot end time of day as HH:MM (default 17:00)")
	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 0, "Maximum number of candidate slots to print (default 20)")
	cmd.Flags().BoolVar(&blockAllDay, "block-all-day", false, "Treat all-day events as busy time")
	cmd.Flags().StringVar(&organizer, "organizer", "", "Attendee whose calendar the account owns; fetched with full event detail")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "Read events from a JSON fixture file instead of the Google API")
	cmd.Flags().BoolVar(&freeBusyOnly, "freebusy", false, "Print each attendee's merged busy timeline instead of candidate slots")

	return cmd
}

// buildEventStore picks between the live Calendar API and a local fixture.
func buildEventStore(ctx context.Context, account, organizer, fixturePath string) (schedule.EventStore, error) {
	if fixturePath != "" {
		store, err := calendar.LoadFixtureStore(fixturePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	if !calendar.HasTokenForAccount(account) {
		return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
	}
	client, err := calendar.NewClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}

	var owned []string
	if organizer != "" {
		owned = []string{strings.TrimSpace(organizer)}
	}
	return calendar.NewStore(client, owned, slog.Default()), nil
}

func printScheduleResult(cmd *cobra.Command, result schedule.Result, duration time.Duration) {
	out := cmd.OutOrStdout()

	switch result.Outcome {
	case schedule.OutcomeSucceeded:
		fmt.Fprintf(out, "Found %d candidate slot(s) for a %d minute meeting:\n\n",
			len(result.Candidates), int(duration.Minutes()))
		for i, candidate := range result.Candidates {
			fmt.Fprintf(out, "%d. %s to %s (confidence %.2f)\n",
				i+1,
				candidate.Interval.Start.Format("Mon, Jan 2 15:04 MST"),
				candidate.Interval.End.Format("15:04 MST"),
				candidate.Confidence)
		}
	case schedule.OutcomeConflicted:
		fmt.Fprintln(out, "No slot of the requested duration is free for all attendees.")
		if len(result.Conflicts) > 0 {
			fmt.Fprintln(out, "\nBlocking events:")
			for i, c := range result.Conflicts {
				title := c.Title
				if title == "" {
					title = "(busy)"
				}
				fmt.Fprintf(out, "%d. %s: %s from %s to %s\n",
					i+1,
					c.Attendee,
					title,
					c.Overlap.Start.Format("Mon, Jan 2 15:04"),
					c.Overlap.End.Format("15:04"))
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  - %s\n", w.String())
		}
	}
}

func printFreeBusy(cmd *cobra.Command, sets []schedule.BusySet, warnings []schedule.AttendeeWarning) {
	out := cmd.OutOrStdout()

	for _, set := range sets {
		fmt.Fprintf(out, "%s\n", set.Attendee)
		if len(set.Intervals) == 0 {
			fmt.Fprintln(out, "  free for the entire range")
			continue
		}
		for _, busy := range set.Intervals {
			fmt.Fprintf(out, "  busy %s to %s\n",
				busy.Start.Format("Mon, Jan 2 15:04"),
				busy.End.Format("Mon, Jan 2 15:04"))
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w.String())
		}
	}
}

// parseCommaSeparatedList splits a comma-separated string into a slice,
// trimming whitespace and skipping empty entries.
func parseCommaSeparatedList(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseClockFlag parses a HH:MM time of day into an offset from midnight.
func parseClockFlag(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
