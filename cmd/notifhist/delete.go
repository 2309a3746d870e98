// Delete command removes a single notification from the history.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deletePackage    string
	deleteUID        int32
	deletePostedTime int64
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one notification from the history",
	Long: `Delete removes a single notification, identified by its posting
package, the posting app's uid, and the posted time in unix
milliseconds. The owning user is derived from the uid.

Example:
  notifhist delete --package com.example.mail --uid 10001 --posted-time 1700000000000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		sess.manager.DeleteNotificationHistoryItem(deletePackage, deleteUID, deletePostedTime)
		fmt.Printf("Deleted notification: %s|%d\n", deletePackage, deletePostedTime)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deletePackage, "package", "", "posting package name (required)")
	deleteCmd.Flags().Int32Var(&deleteUID, "uid", 0, "posting app uid (required)")
	deleteCmd.Flags().Int64Var(&deletePostedTime, "posted-time", 0, "posted time in unix milliseconds (required)")
	_ = deleteCmd.MarkFlagRequired("package")
	_ = deleteCmd.MarkFlagRequired("uid")
	_ = deleteCmd.MarkFlagRequired("posted-time")
}
