package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/meetfinder/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth [auth-code]",
		Short: "Authorize read-only access to Google Calendar",
		Long: `Authorize meetfinder to read Google Calendar data for an account.

Without arguments, prints the authorization URL to visit in a browser.
After granting access, run the command again with the authorization code
to save the token:

  meetfinder auth --account work
  meetfinder auth --account work <auth-code>

Tokens are stored per account and refreshed automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Pick up tokens saved before per-account storage existed
			if err := google.MigrateDefaultToken(); err != nil {
				return fmt.Errorf("failed to migrate legacy token: %w", err)
			}

			if len(args) == 0 {
				if google.HasTokenForAccount(account) {
					fmt.Printf("Account %q is already authorized. Re-authorizing replaces the stored token.\n\n", account)
				}
				fmt.Println("Visit this URL in your browser and grant read-only calendar access:")
				fmt.Printf("\n  %s\n\n", google.GetAuthURL())
				fmt.Printf("Then run: meetfinder auth --account %s <auth-code>\n", account)
				return nil
			}

			if err := google.SaveTokenForAccount(context.Background(), account, args[0]); err != nil {
				return fmt.Errorf("failed to save token for account %s: %w", account, err)
			}
			fmt.Printf("Token saved for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	return cmd
}
