// Version command for the notifhist CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/notifhist/pkg/notifhist"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the notifhist version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("notifhist", notifhist.Version)
	},
}
