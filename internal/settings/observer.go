package settings

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ledgerline/notifhist/pkg/types"
)

// Observer watches the settings file and invokes the callback once per
// user whose effective value changed. Callbacks run on the watcher
// goroutine; receivers must synchronize their own state.
type Observer struct {
	watcher  *fsnotify.Watcher
	store    *Store
	callback func(types.UserID)
	log      *zap.Logger
	done     chan struct{}
}

// NewObserver starts watching the store's file. The containing directory
// is watched so atomic rename-replace writes are still seen.
func NewObserver(store *Store, callback func(types.UserID), log *zap.Logger) (*Observer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(store.Path())); err != nil {
		watcher.Close()
		return nil, err
	}

	o := &Observer{
		watcher:  watcher,
		store:    store,
		callback: callback,
		log:      log,
		done:     make(chan struct{}),
	}
	go o.run()
	return o, nil
}

func (o *Observer) run() {
	defer close(o.done)
	target := filepath.Clean(o.store.Path())
	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// Remove matters too: a deleted file reverts every explicit
			// entry to the enabled default.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			changed, err := o.store.Reload()
			if err != nil {
				o.log.Warn("settings reload failed", zap.Error(err))
				continue
			}
			for _, userID := range changed {
				o.callback(userID)
			}
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.log.Warn("settings watch error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for the goroutine to exit.
func (o *Observer) Close() error {
	err := o.watcher.Close()
	<-o.done
	return err
}
