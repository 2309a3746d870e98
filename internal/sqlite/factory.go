package sqlite

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ledgerline/notifhist/pkg/types"
)

// Factory implements types.StoreFactory. Each user's store lives in its
// own directory under DataDir: user-<id>/history.db plus the JSONL mirror.
type Factory struct {
	config types.Config
	log    *zap.Logger
}

// NewFactory returns a store factory for the given configuration.
// Returns a sentinel validation error from pkg/types on a bad config.
func NewFactory(config types.Config, log *zap.Logger) (*Factory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{config: config, log: log}, nil
}

// OpenStore returns the unopened store for userID. Callers must Init it.
func (f *Factory) OpenStore(userID types.UserID) (types.Store, error) {
	if userID < 0 {
		return nil, fmt.Errorf("%w: negative user id %d", types.ErrInvalidData, userID)
	}
	dir := filepath.Join(f.config.DataDir, UserDirName(userID))
	return newStore(userID, dir, f.config.Retention(), f.log), nil
}

// UserDirName returns the per-user directory name under DataDir.
func UserDirName(userID types.UserID) string {
	return fmt.Sprintf("user-%d", userID)
}
