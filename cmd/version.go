package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the meetfinder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("meetfinder version %s\n", version)
		},
	}
}
