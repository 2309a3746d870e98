// Add command records a notification into a user's history.
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/notifhist/pkg/types"
)

var (
	addUser        string
	addPackage     string
	addChannelID   string
	addChannelName string
	addUID         int32
	addTitle       string
	addText        string
	addIcon        string
	addPostedTime  int64
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a notification in the history",
	Long: `Add records a notification into the history store of the given user.

The posted time defaults to now. Recording silently does nothing when
the user's history is disabled or the user is not unlocked.

Example:
  notifhist add --package com.example.mail --title "New message"
  notifhist add --user 10 --package com.example.chat --channel-id dm`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addUser, "user", "0", "user id to record under")
	addCmd.Flags().StringVar(&addPackage, "package", "", "posting package name (required)")
	addCmd.Flags().StringVar(&addChannelID, "channel-id", "", "notification channel id")
	addCmd.Flags().StringVar(&addChannelName, "channel-name", "", "notification channel name")
	addCmd.Flags().Int32Var(&addUID, "uid", 0, "posting app uid")
	addCmd.Flags().StringVar(&addTitle, "title", "", "notification title")
	addCmd.Flags().StringVar(&addText, "text", "", "notification text")
	addCmd.Flags().StringVar(&addIcon, "icon", "", "icon reference")
	addCmd.Flags().Int64Var(&addPostedTime, "posted-time", 0, "posted time in unix milliseconds (default: now)")
	_ = addCmd.MarkFlagRequired("package")
}

func runAdd(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(addUser)
	if err != nil {
		return err
	}

	posted := addPostedTime
	if posted == 0 {
		posted = time.Now().UnixMilli()
	}

	n := types.NewNotificationBuilder().
		SetPackage(addPackage).
		SetChannelID(addChannelID).
		SetChannelName(addChannelName).
		SetUID(addUID).
		SetUserID(userID).
		SetPostedTime(posted).
		SetTitle(addTitle).
		SetText(addText).
		SetIcon(addIcon).
		Build()

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	sess.manager.AddNotification(n)

	if flagJSON {
		output, err := json.MarshalIndent(n, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		fmt.Println(string(output))
	} else {
		fmt.Printf("Recorded notification: %s\n", n.Key())
	}
	return nil
}
