// Package sqlite exposes the factory for the SQLite-backed notification
// history store while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/ledgerline/notifhist/internal/sqlite"
	"github.com/ledgerline/notifhist/pkg/types"
)

// NewFactory creates a store factory backed by SQLite. Each store opened
// through the factory lives in its own per-user directory under
// cfg.DataDir.
//
// Example:
//
//	factory, err := sqlite.NewFactory(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".notifhist-db",
//	}, logger)
func NewFactory(cfg types.Config, log *zap.Logger) (types.StoreFactory, error) {
	return sqlite.NewFactory(cfg, log)
}
