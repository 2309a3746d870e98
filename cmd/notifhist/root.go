// Root command for the notifhist CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/ledgerline/notifhist/internal/paths"
	"github.com/ledgerline/notifhist/pkg/notifhist"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Values loaded from config.yaml by PersistentPreRunE so all
// subcommands can use them.
var (
	configDataDir   string
	configRetention int
	configUsers     []int32
)

var rootCmd = &cobra.Command{
	Use:     "notifhist",
	Short:   "Notifhist manages per-user notification history",
	Version: notifhist.Version,
	Long: `Notifhist records posted notifications into per-user history stores,
gated by each user's lock state and a per-user history-enabled setting.
Stores live under the data directory, one subdirectory per user.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configRetention = cfg.GetInt(cfgKeyRetentionDays)
		configUsers = nil
		for _, id := range cfg.GetIntSlice(cfgKeyUsers) {
			configUsers = append(configUsers, int32(id))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.notifhist-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(flushCmd)
}

// resolveDataDir follows the precedence chain:
// --data-dir flag > config.yaml data_dir > NOTIFHIST_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir follows the precedence chain:
// --config-dir flag > NOTIFHIST_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
