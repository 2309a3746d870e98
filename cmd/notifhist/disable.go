// Disable command turns a user's history recording off and deletes the
// stored history.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disableUser string

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable history recording for a user",
	Long: `Disable turns off history recording for the given user and deletes
that user's stored history. Re-enabling starts from an empty history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(disableUser)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		if err := sess.settings.SetHistoryEnabled(userID, false); err != nil {
			return fmt.Errorf("persist setting: %w", err)
		}
		sess.manager.SettingsUpdated(userID)

		fmt.Printf("History disabled for user %d; stored history deleted\n", userID)
		return nil
	},
}

func init() {
	disableCmd.Flags().StringVar(&disableUser, "user", "0", "user id")
}
