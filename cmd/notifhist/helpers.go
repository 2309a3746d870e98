// Shared helpers for notifhist CLI commands.
package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/ledgerline/notifhist/internal/history"
	"github.com/ledgerline/notifhist/internal/settings"
	"github.com/ledgerline/notifhist/internal/users"
	"github.com/ledgerline/notifhist/pkg/sqlite"
	"github.com/ledgerline/notifhist/pkg/types"
)

// session bundles everything a command needs to operate on history.
type session struct {
	manager  *history.Manager
	settings *settings.Store
	users    []types.UserID
	log      *zap.Logger
}

// openSession builds a session for a single-shot command; lifecycle
// work runs inline. The caller must defer sess.close().
func openSession() (*session, error) {
	return buildSession(history.DirectExecutor{})
}

// openLongSession builds a session for the long-running watch command;
// lifecycle work runs on a background serial executor.
func openLongSession() (*session, error) {
	return buildSession(history.NewSerialExecutor())
}

// buildSession wires the manager from the resolved directories and
// unlocks the configured users.
func buildSession(exec history.Executor) (*session, error) {
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:       types.BackendSQLite,
		DataDir:       dataDir,
		RetentionDays: configRetention,
	}
	factory, err := sqlite.NewFactory(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create store factory: %w", err)
	}

	settingsStore, err := settings.NewStore(filepath.Join(configDir, settings.FileName))
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	ids := userIDs()
	source := users.NewSource(ids)

	mgr := history.NewManager(factory, settingsStore, source, exec, log)
	mgr.Start()
	for _, info := range source.Users() {
		mgr.OnUserUnlocked(info.ID)
	}

	return &session{manager: mgr, settings: settingsStore, users: ids, log: log}, nil
}

// close flushes stores and releases resources.
func (s *session) close() {
	s.manager.Close()
	_ = s.log.Sync()
}

// userIDs returns the users configured in config.yaml, always including
// the system user.
func userIDs() []types.UserID {
	ids := []types.UserID{types.UserSystem}
	for _, id := range configUsers {
		uid := types.UserID(id)
		if uid != types.UserSystem {
			ids = append(ids, uid)
		}
	}
	return ids
}

// newSettingsObserver watches the settings file and forwards per-user
// changes into the manager.
func newSettingsObserver(sess *session) (*settings.Observer, error) {
	return settings.NewObserver(sess.settings, sess.manager.SettingsUpdated, sess.log)
}

// parseUserID parses a --user flag value.
func parseUserID(raw string) (types.UserID, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return types.UserID(n), nil
}

// newLogger builds the command logger. Debug logging goes to stderr when
// --verbose is set; otherwise logs are discarded so command output stays
// parseable.
func newLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
