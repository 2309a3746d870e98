// Watch command runs the manager until interrupted, applying settings
// file changes as they happen.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run until interrupted, applying settings changes",
	Long: `Watch keeps the manager alive and observes the settings file. When a
user's history-enabled flag changes out of band, the change is applied
immediately: disabling deletes that user's stored history.

Stop with Ctrl-C; pending writes are flushed on shutdown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openLongSession()
		if err != nil {
			return err
		}
		defer sess.close()

		obs, err := newSettingsObserver(sess)
		if err != nil {
			return fmt.Errorf("watch settings: %w", err)
		}
		defer obs.Close()

		fmt.Println("Watching settings; press Ctrl-C to stop")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		fmt.Println("Shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
