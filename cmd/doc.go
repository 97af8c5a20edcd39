// Package cmd implements the command-line interface for meetfinder.
//
// This package provides the following commands:
//   - find: Find ranked candidate meeting slots for a set of attendees
//   - serve: Start the MCP server to provide scheduling tools for AI assistants
//   - auth: Authorize read-only access to Google Calendar for an account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The find command is the default command when no subcommand is specified.
package cmd
