package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/calendar"
	"github.com/teemow/meetfinder/internal/google"
	"github.com/teemow/meetfinder/internal/server"
)

// RegisterCalendarResources registers read-only calendar resources.
// These let MCP clients inspect which calendars the authenticated account
// can see before running scheduling queries against them.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	calendarsResource := mcp.NewResource(
		"calendar://calendars",
		"Available Calendars",
		mcp.WithResourceDescription("Calendars visible to the authenticated Google account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarList(ctx, request, sc)
	})

	primaryResource := mcp.NewResource(
		"calendar://primary",
		"Primary Calendar",
		mcp.WithResourceDescription("The authenticated account's primary calendar"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(primaryResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handlePrimaryCalendar(ctx, request, sc)
	})

	return nil
}

// resourceClient retrieves or creates a calendar client for the account.
// Resources have no arguments, so the default account is always used.
func resourceClient(ctx context.Context, sc *server.ServerContext) (*calendar.Client, error) {
	const account = "default"

	client := sc.CalendarClientForAccount(account)
	if client != nil {
		return client, nil
	}

	if !calendar.HasTokenForAccount(account) {
		return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
	}
	client, err := calendar.NewClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client: %w", err)
	}
	sc.SetCalendarClientForAccount(account, client)
	return client, nil
}

func handleCalendarList(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := resourceClient(ctx, sc)
	if err != nil {
		return nil, err
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	jsonData, err := json.MarshalIndent(calendars, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar list: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func handlePrimaryCalendar(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := resourceClient(ctx, sc)
	if err != nil {
		return nil, err
	}

	primary, err := client.GetPrimaryCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary calendar: %w", err)
	}

	jsonData, err := json.MarshalIndent(primary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
