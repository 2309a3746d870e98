// Flush command forces pending history writes to disk.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Force pending history writes to disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		sess.manager.TriggerWriteToDisk()
		fmt.Println("History flushed")
		return nil
	},
}
