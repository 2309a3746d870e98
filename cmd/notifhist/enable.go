// Enable command turns a user's history recording on.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enableUser string

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable history recording for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(enableUser)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		if err := sess.settings.SetHistoryEnabled(userID, true); err != nil {
			return fmt.Errorf("persist setting: %w", err)
		}
		sess.manager.SettingsUpdated(userID)

		fmt.Printf("History enabled for user %d\n", userID)
		return nil
	},
}

func init() {
	enableCmd.Flags().StringVar(&enableUser, "user", "0", "user id")
}
