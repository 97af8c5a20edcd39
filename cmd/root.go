package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetfinder application
var rootCmd = &cobra.Command{
	Use:   "meetfinder",
	Short: "Finds meeting times that work for every attendee",
	Long: `meetfinder resolves shared availability across Google Calendar accounts
and proposes ranked candidate time slots for a meeting.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetfinder version %s\n" .Version}}`)

	// If no subcommand is provided, run the find command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "find")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
