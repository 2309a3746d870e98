// Package integration tests the history manager over real SQLite stores
// and a real settings file. These tests exercise the full lifecycle:
// unlock, record, read, flush, disable, and restart.
package integration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerline/notifhist/internal/history"
	"github.com/ledgerline/notifhist/internal/settings"
	internalsqlite "github.com/ledgerline/notifhist/internal/sqlite"
	"github.com/ledgerline/notifhist/internal/users"
	"github.com/ledgerline/notifhist/pkg/sqlite"
	"github.com/ledgerline/notifhist/pkg/types"
)

const (
	userSystem    = types.UserSystem
	userSecondary = types.UserID(10)
)

// env is an isolated manager wired to real stores in temp directories.
type env struct {
	t        *testing.T
	dataDir  string
	settings *settings.Store
	manager  *history.Manager
}

// newEnv builds a manager over fresh temp directories. Lifecycle work
// runs inline so assertions can follow calls directly.
func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvAt(t, t.TempDir(), filepath.Join(t.TempDir(), settings.FileName))
}

// newEnvAt builds a manager over existing directories, used to simulate
// a restart against surviving state.
func newEnvAt(t *testing.T, dataDir, settingsPath string) *env {
	t.Helper()

	factory, err := sqlite.NewFactory(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}, nil)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}

	st, err := settings.NewStore(settingsPath)
	if err != nil {
		t.Fatalf("settings.NewStore: %v", err)
	}

	source := users.NewSource([]types.UserID{userSecondary})
	mgr := history.NewManager(factory, st, source, history.DirectExecutor{}, nil)
	mgr.Start()

	e := &env{t: t, dataDir: dataDir, settings: st, manager: mgr}
	t.Cleanup(mgr.Close)
	return e
}

// userDir returns the on-disk directory of a user's store.
func (e *env) userDir(id types.UserID) string {
	return filepath.Join(e.dataDir, internalsqlite.UserDirName(id))
}

// postedAt returns a posted time offset milliseconds from now, keeping
// test records inside the retention window across store reopens.
func postedAt(offset int64) int64 {
	return time.Now().UnixMilli() + offset
}

// notification builds a minimal record for the given user.
func notification(userID types.UserID, pkg string, posted int64) types.HistoricalNotification {
	return types.NewNotificationBuilder().
		SetPackage(pkg).
		SetChannelID("general").
		SetChannelName("General").
		SetUID(int32(userID)*100000 + 1).
		SetUserID(userID).
		SetPostedTime(posted).
		SetTitle("title " + pkg).
		SetText("text").
		Build()
}
