// Package history implements the per-user notification history manager.
// The manager routes add/read/delete/write operations to per-user stores,
// gated by the "history enabled" setting and the user's unlock state. It
// is driven by host lifecycle callbacks that may arrive misordered or
// duplicated; no callback is ever allowed to fail the caller.
package history

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ledgerline/notifhist/pkg/types"
)

// userState tracks one user's lifecycle. A store exists only while the
// user is unlocked with history enabled; pendingRemovals buffers package
// removals that arrived while the store was inaccessible.
type userState struct {
	unlocked        bool
	enabled         bool
	pendingDisable  bool
	store           types.Store
	pendingRemovals []string
}

// Manager orchestrates per-user stores. All exported methods are safe for
// concurrent use; the mutex guards the user map, the sole shared mutable
// resource. Store lifecycle work is posted to the executor so disk flushes
// never block a lifecycle callback.
type Manager struct {
	factory  types.StoreFactory
	settings types.Settings
	source   types.UserSource
	exec     Executor
	log      *zap.Logger

	mu    sync.Mutex
	users map[types.UserID]*userState
}

// NewManager builds a manager. The factory, settings store, user source,
// and executor are injected; nothing is resolved through globals.
func NewManager(factory types.StoreFactory, settings types.Settings, source types.UserSource, exec Executor, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		factory:  factory,
		settings: settings,
		source:   source,
		exec:     exec,
		log:      log,
		users:    make(map[types.UserID]*userState),
	}
}

// Start warms the enablement cache for every enumerated user. Users not
// yet enumerated become known on their first lifecycle event instead.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, info := range m.source.Users() {
		if _, ok := m.users[info.ID]; !ok {
			m.users[info.ID] = &userState{enabled: m.settings.HistoryEnabled(info.ID)}
		}
	}
}

// Close flushes every unlocked store, releases every attached store, and
// shuts down the executor.
func (m *Manager) Close() {
	m.TriggerWriteToDisk()

	m.mu.Lock()
	for userID, st := range m.users {
		m.detachStoreLocked(userID, st)
	}
	m.mu.Unlock()

	m.exec.Close()
}

// stateLocked returns the state for userID, creating it on first sight
// with the enablement setting as the initial cache value.
func (m *Manager) stateLocked(userID types.UserID) *userState {
	st, ok := m.users[userID]
	if !ok {
		st = &userState{enabled: m.settings.HistoryEnabled(userID)}
		m.users[userID] = st
	}
	return st
}

// OnUserUnlocked marks the user unlocked. With history enabled it opens
// and initializes the user's store, then replays any queued package
// removals. With a disable pending it opens the store only to destroy its
// on-disk data. Duplicate callbacks are tolerated.
func (m *Manager) OnUserUnlocked(userID types.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(userID)
	st.unlocked = true

	if st.pendingDisable {
		st.pendingDisable = false
		st.enabled = false
		st.pendingRemovals = nil
		store, err := m.factory.OpenStore(userID)
		if err != nil {
			m.log.Warn("open store for disable failed",
				zap.Int32("user", int32(userID)), zap.Error(err))
			return
		}
		m.exec.Post(func() {
			if err := store.DisableHistory(); err != nil {
				m.log.Warn("disable history failed",
					zap.Int32("user", int32(userID)), zap.Error(err))
			}
		})
		return
	}

	if !st.enabled {
		st.pendingRemovals = nil
		return
	}

	if st.store == nil {
		store, err := m.factory.OpenStore(userID)
		if err != nil {
			m.log.Warn("open store failed",
				zap.Int32("user", int32(userID)), zap.Error(err))
			return
		}
		st.store = store
	}

	store := st.store
	removals := st.pendingRemovals
	st.pendingRemovals = nil
	m.exec.Post(func() {
		if err := store.Init(); err != nil {
			m.log.Warn("store init failed",
				zap.Int32("user", int32(userID)), zap.Error(err))
			return
		}
		for _, pkg := range removals {
			if err := store.OnPackageRemoved(pkg); err != nil {
				m.log.Warn("pending removal replay failed",
					zap.Int32("user", int32(userID)),
					zap.String("package", pkg), zap.Error(err))
			}
		}
	})
}

// OnUserStopped marks the user locked and detaches the store, closing it
// without deleting data. No-op for a user that was never unlocked.
func (m *Manager) OnUserStopped(userID types.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	if !ok {
		return
	}
	st.unlocked = false
	m.detachStoreLocked(userID, st)
}

// OnUserRemoved discards all state for the user: store reference,
// enablement cache, and pending removals. No-op for an unknown user.
func (m *Manager) OnUserRemoved(userID types.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	if !ok {
		return
	}
	m.detachStoreLocked(userID, st)
	delete(m.users, userID)
}

// detachStoreLocked drops the user's store reference and posts a close so
// the database handle is released. Data stays on disk; the next unlock
// opens a fresh store over it.
func (m *Manager) detachStoreLocked(userID types.UserID, st *userState) {
	if st.store == nil {
		return
	}
	store := st.store
	st.store = nil
	m.exec.Post(func() {
		if err := store.Close(); err != nil {
			m.log.Warn("store close failed",
				zap.Int32("user", int32(userID)), zap.Error(err))
		}
	})
}

// OnPackageRemoved forwards the removal to an unlocked, enabled user's
// store. For a locked or never-unlocked user it queues the package for
// replay at unlock. With history disabled the removal is dropped.
func (m *Manager) OnPackageRemoved(userID types.UserID, pkg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(userID)
	if !st.enabled || st.pendingDisable {
		m.log.Debug("package removal dropped, history disabled",
			zap.Int32("user", int32(userID)), zap.String("package", pkg))
		return
	}
	if !st.unlocked || st.store == nil {
		st.pendingRemovals = append(st.pendingRemovals, pkg)
		return
	}

	store := st.store
	m.exec.Post(func() {
		if err := store.OnPackageRemoved(pkg); err != nil {
			m.log.Warn("package removal failed",
				zap.Int32("user", int32(userID)),
				zap.String("package", pkg), zap.Error(err))
		}
	})
}

// AddNotification routes the record to its user's store. Records for
// locked or disabled users are silently dropped.
func (m *Manager) AddNotification(n types.HistoricalNotification) {
	m.mu.Lock()
	store := m.storeForWriteLocked(n.UserID)
	m.mu.Unlock()

	if store == nil {
		m.log.Debug("notification dropped",
			zap.Int32("user", int32(n.UserID)), zap.String("package", n.Package))
		return
	}
	if err := store.AddNotification(n); err != nil {
		m.log.Warn("add notification failed",
			zap.Int32("user", int32(n.UserID)), zap.Error(err))
	}
}

// storeForWriteLocked returns the user's store when the user is unlocked
// with history enabled, nil otherwise.
func (m *Manager) storeForWriteLocked(userID types.UserID) types.Store {
	st, ok := m.users[userID]
	if !ok || !st.unlocked || !st.enabled {
		return nil
	}
	return st.store
}

// ReadNotificationHistory merges the histories of every unlocked, enabled
// user in userIDs. Locked or disabled users contribute nothing.
func (m *Manager) ReadNotificationHistory(userIDs []types.UserID) *types.NotificationHistory {
	aggregate := types.NewNotificationHistory()
	for _, userID := range userIDs {
		m.mu.Lock()
		store := m.storeForWriteLocked(userID)
		m.mu.Unlock()
		if store == nil {
			continue
		}
		h, err := store.ReadNotificationHistory()
		if err != nil {
			m.log.Warn("read history failed",
				zap.Int32("user", int32(userID)), zap.Error(err))
			continue
		}
		aggregate.AddNotificationsToWrite(h)
	}
	return aggregate
}

// ReadFilteredNotificationHistory delegates to the single user's store
// with filter and limit parameters. Returns an empty history when the
// user is locked or history is disabled.
func (m *Manager) ReadFilteredNotificationHistory(userID types.UserID, pkgFilter, channelFilter string, maxCount int) *types.NotificationHistory {
	m.mu.Lock()
	store := m.storeForWriteLocked(userID)
	m.mu.Unlock()

	if store == nil {
		return types.NewNotificationHistory()
	}
	h, err := store.ReadFilteredNotificationHistory(pkgFilter, channelFilter, maxCount)
	if err != nil {
		m.log.Warn("filtered read failed",
			zap.Int32("user", int32(userID)), zap.Error(err))
		return types.NewNotificationHistory()
	}
	return h
}

// DeleteNotificationHistoryItem deletes one record, resolving the target
// user from the posting application uid.
func (m *Manager) DeleteNotificationHistoryItem(pkg string, uid int32, postedTime int64) {
	userID := types.UserIDFromUID(uid)

	m.mu.Lock()
	store := m.storeForWriteLocked(userID)
	m.mu.Unlock()

	if store == nil {
		m.log.Debug("delete dropped, user locked or disabled",
			zap.Int32("user", int32(userID)), zap.String("package", pkg))
		return
	}
	if err := store.DeleteNotificationHistoryItem(pkg, postedTime); err != nil {
		m.log.Warn("delete notification failed",
			zap.Int32("user", int32(userID)), zap.Error(err))
	}
}

// TriggerWriteToDisk flushes every unlocked, enabled user's store. Locked
// users' stores are already detached and receive nothing.
func (m *Manager) TriggerWriteToDisk() {
	m.mu.Lock()
	var stores []types.Store
	var ids []types.UserID
	for userID, st := range m.users {
		if st.unlocked && st.enabled && st.store != nil {
			stores = append(stores, st.store)
			ids = append(ids, userID)
		}
	}
	m.mu.Unlock()

	for i, store := range stores {
		userID := ids[i]
		store := store
		m.exec.Post(func() {
			if err := store.ForceWriteToDisk(); err != nil {
				m.log.Warn("flush failed",
					zap.Int32("user", int32(userID)), zap.Error(err))
			}
		})
	}
}

// SettingsUpdated re-reads the enablement setting for userID. Disabling
// an active store flushes and destroys its data; disabling a detached one
// defers the destroy to the next unlock. Enabling while unlocked opens a
// fresh store.
func (m *Manager) SettingsUpdated(userID types.UserID) {
	enabled := m.settings.HistoryEnabled(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(userID)
	if enabled == st.enabled && !st.pendingDisable {
		return
	}

	if enabled {
		st.enabled = true
		st.pendingDisable = false
		if st.unlocked && st.store == nil {
			store, err := m.factory.OpenStore(userID)
			if err != nil {
				m.log.Warn("open store failed",
					zap.Int32("user", int32(userID)), zap.Error(err))
				return
			}
			st.store = store
			m.exec.Post(func() {
				if err := store.Init(); err != nil {
					m.log.Warn("store init failed",
						zap.Int32("user", int32(userID)), zap.Error(err))
				}
			})
		}
		return
	}

	st.enabled = false
	st.pendingRemovals = nil
	if st.store != nil {
		store := st.store
		st.store = nil
		m.exec.Post(func() {
			if err := store.DisableHistory(); err != nil {
				m.log.Warn("disable history failed",
					zap.Int32("user", int32(userID)), zap.Error(err))
			}
		})
		return
	}
	// Store detached (locked or never unlocked): destroy at next unlock.
	st.pendingDisable = true
}

// IsHistoryEnabled reports the cached enablement flag. Unknown users
// report false; Start and lifecycle events populate the cache.
func (m *Manager) IsHistoryEnabled(userID types.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	return ok && st.enabled && !st.pendingDisable
}

// DoesHistoryExistForUser reports whether the user currently has an
// attached store.
func (m *Manager) DoesHistoryExistForUser(userID types.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	return ok && st.store != nil
}

// IsUserUnlocked reports whether the user is currently unlocked.
func (m *Manager) IsUserUnlocked(userID types.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	return ok && st.unlocked
}

// PendingPackageRemovalsForUser returns the queued package removals for
// the user, nil when none are queued.
func (m *Manager) PendingPackageRemovalsForUser(userID types.UserID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.users[userID]
	if !ok || len(st.pendingRemovals) == 0 {
		return nil
	}
	out := make([]string, len(st.pendingRemovals))
	copy(out, st.pendingRemovals)
	return out
}

// ReplaceStore swaps the attached store for userID. Test seam; no-op for
// a user with no state.
func (m *Manager) ReplaceStore(userID types.UserID, store types.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.users[userID]; ok {
		st.store = store
	}
}
