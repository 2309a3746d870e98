// List command reads notification history with optional filtering.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/notifhist/pkg/types"
)

var (
	listUser    string
	listAll     bool
	listPackage string
	listChannel string
	listMax     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded notifications",
	Long: `List reads notification history for one user or for all configured
users. Package and channel filters apply to a single user's history and
return the newest records first.

Example:
  notifhist list
  notifhist list --all
  notifhist list --user 10 --package com.example.mail --max 20`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listUser, "user", "0", "user id to read")
	listCmd.Flags().BoolVar(&listAll, "all", false, "read every configured user")
	listCmd.Flags().StringVar(&listPackage, "package", "", "only notifications from this package")
	listCmd.Flags().StringVar(&listChannel, "channel", "", "only notifications from this channel id")
	listCmd.Flags().IntVar(&listMax, "max", 0, "maximum records to return (0 = no limit)")
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	var history *types.NotificationHistory
	switch {
	case listAll:
		history = sess.manager.ReadNotificationHistory(sess.users)
	case listPackage != "" || listChannel != "" || listMax > 0:
		userID, err := parseUserID(listUser)
		if err != nil {
			return err
		}
		history = sess.manager.ReadFilteredNotificationHistory(userID, listPackage, listChannel, listMax)
	default:
		userID, err := parseUserID(listUser)
		if err != nil {
			return err
		}
		history = sess.manager.ReadNotificationHistory([]types.UserID{userID})
	}

	records := history.NotificationsToWrite()
	if flagJSON {
		output, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No notifications recorded")
		return nil
	}
	for _, n := range records {
		fmt.Printf("%d  user=%d  %s  [%s]  %s\n", n.PostedTime, n.UserID, n.Package, n.ChannelID, n.Title)
	}
	return nil
}
