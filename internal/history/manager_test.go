// Tests for the history manager's lifecycle gating, pending-removal
// replay, and routing. Stores are faked through the factory seam.
package history

import (
	"fmt"
	"testing"

	"github.com/ledgerline/notifhist/pkg/types"
)

const userSecondary = types.UserID(10)

// fakeStore records every call so tests can verify routing and counts.
type fakeStore struct {
	initCalls    int
	added        []types.HistoricalNotification
	removedPkgs  []string
	deletedKeys  []string
	flushCalls   int
	closeCalls   int
	disableCalls int
	readResult   *types.NotificationHistory
	filtered     []string // "pkg|channel|max" per filtered read
}

func (f *fakeStore) Init() error { f.initCalls++; return nil }

func (f *fakeStore) AddNotification(n types.HistoricalNotification) error {
	f.added = append(f.added, n)
	return nil
}

func (f *fakeStore) OnPackageRemoved(pkg string) error {
	f.removedPkgs = append(f.removedPkgs, pkg)
	return nil
}

func (f *fakeStore) DeleteNotificationHistoryItem(pkg string, postedTime int64) error {
	f.deletedKeys = append(f.deletedKeys, fmt.Sprintf("%s|%d", pkg, postedTime))
	return nil
}

func (f *fakeStore) ReadNotificationHistory() (*types.NotificationHistory, error) {
	if f.readResult == nil {
		return types.NewNotificationHistory(), nil
	}
	return f.readResult, nil
}

func (f *fakeStore) ReadFilteredNotificationHistory(pkgFilter, channelFilter string, maxCount int) (*types.NotificationHistory, error) {
	f.filtered = append(f.filtered, fmt.Sprintf("%s|%s|%d", pkgFilter, channelFilter, maxCount))
	if f.readResult == nil {
		return types.NewNotificationHistory(), nil
	}
	return f.readResult, nil
}

func (f *fakeStore) ForceWriteToDisk() error { f.flushCalls++; return nil }
func (f *fakeStore) Close() error            { f.closeCalls++; return nil }
func (f *fakeStore) DisableHistory() error   { f.disableCalls++; return nil }

// fakeFactory hands out one fakeStore per user, remembering them.
type fakeFactory struct {
	stores map[types.UserID]*fakeStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{stores: make(map[types.UserID]*fakeStore)}
}

func (f *fakeFactory) OpenStore(userID types.UserID) (types.Store, error) {
	s := &fakeStore{}
	f.stores[userID] = s
	return s, nil
}

// fakeSettings defaults every user to enabled, like the real store.
type fakeSettings struct {
	values map[types.UserID]bool
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[types.UserID]bool)}
}

func (s *fakeSettings) HistoryEnabled(userID types.UserID) bool {
	v, ok := s.values[userID]
	if !ok {
		return true
	}
	return v
}

func (s *fakeSettings) SetHistoryEnabled(userID types.UserID, enabled bool) error {
	s.values[userID] = enabled
	return nil
}

type fakeSource struct{ users []types.UserInfo }

func (s *fakeSource) Users() []types.UserInfo { return s.users }

type fixture struct {
	manager  *Manager
	factory  *fakeFactory
	settings *fakeSettings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := newFakeFactory()
	settings := newFakeSettings()
	source := &fakeSource{users: []types.UserInfo{
		{ID: types.UserSystem}, {ID: userSecondary},
	}}
	m := NewManager(factory, settings, source, DirectExecutor{}, nil)
	m.Start()
	return &fixture{manager: m, factory: factory, settings: settings}
}

func historicalNotification(pkg string, userID types.UserID) types.HistoricalNotification {
	return types.NewNotificationBuilder().
		SetPackage(pkg).
		SetChannelID("channelId").
		SetChannelName("channelName").
		SetUID(int32(userID) * 100000).
		SetUserID(userID).
		SetPostedTime(987654321).
		SetTitle("title").
		SetText("text").
		Build()
}

func TestOnUserUnlocked(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should not exist before unlock")
	}
	if m.IsUserUnlocked(types.UserSystem) {
		t.Error("user should not be unlocked before unlock")
	}

	m.OnUserUnlocked(types.UserSystem)

	if !m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should exist after unlock")
	}
	if !m.IsUserUnlocked(types.UserSystem) {
		t.Error("user should be unlocked")
	}
	if got := fx.factory.stores[types.UserSystem].initCalls; got != 1 {
		t.Errorf("expected 1 init call, got %d", got)
	}
}

func TestOnUserUnlocked_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	if !m.DoesHistoryExistForUser(types.UserSystem) {
		t.Fatal("history should exist after unlock")
	}
	m.OnUserStopped(types.UserSystem)

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	m.OnUserUnlocked(types.UserSystem)

	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should not exist after disabled unlock")
	}
	// The unlock opens a store only to destroy its data, exactly once.
	if got := fx.factory.stores[types.UserSystem].disableCalls; got != 1 {
		t.Errorf("expected 1 disableHistory call, got %d", got)
	}
}

func TestOnUserUnlocked_historyDisabledThenEnabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	m.OnUserStopped(types.UserSystem)

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)
	fx.settings.SetHistoryEnabled(types.UserSystem, true)
	m.SettingsUpdated(types.UserSystem)

	m.OnUserUnlocked(types.UserSystem)

	if !m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should exist after re-enabled unlock")
	}
	if got := fx.factory.stores[types.UserSystem].disableCalls; got != 0 {
		t.Errorf("expected no disableHistory calls, got %d", got)
	}
}

func TestOnUserUnlocked_cleansUpRemovedPackages(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnPackageRemoved(types.UserSystem, "pkg")
	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Fatal("history should not exist while locked")
	}

	m.OnUserUnlocked(types.UserSystem)

	if !m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should exist after unlock")
	}
	store := fx.factory.stores[types.UserSystem]
	if len(store.removedPkgs) != 1 || store.removedPkgs[0] != "pkg" {
		t.Errorf("expected one replayed removal, got %v", store.removedPkgs)
	}
	if m.PendingPackageRemovalsForUser(types.UserSystem) != nil {
		t.Error("pending removals should be cleared after replay")
	}
}

func TestOnUserStopped_userExists(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	m.OnUserStopped(types.UserSystem)

	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("store should be detached after stop")
	}
	if m.IsUserUnlocked(types.UserSystem) {
		t.Error("user should be locked after stop")
	}
	store := fx.factory.stores[types.UserSystem]
	if store.closeCalls != 1 {
		t.Errorf("store should be closed on stop, got %d close calls", store.closeCalls)
	}
	if store.disableCalls != 0 {
		t.Errorf("stop must not destroy data, got %d disable calls", store.disableCalls)
	}
}

func TestOnUserStopped_closesStoreEachCycle(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	for i := 0; i < 3; i++ {
		m.OnUserUnlocked(types.UserSystem)
		store := fx.factory.stores[types.UserSystem]
		m.OnUserStopped(types.UserSystem)
		if store.closeCalls != 1 {
			t.Fatalf("cycle %d: expected exactly one close, got %d", i, store.closeCalls)
		}
	}
}

func TestOnUserStopped_userDoesNotExist(t *testing.T) {
	m := newFixture(t).manager

	m.OnUserStopped(types.UserSystem)

	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should not exist")
	}
	if m.IsUserUnlocked(types.UserSystem) {
		t.Error("user should not be unlocked")
	}
}

func TestOnUserRemoved_userExists(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	m.OnUserRemoved(types.UserSystem)

	if m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("history should not exist after removal")
	}
	if got := fx.factory.stores[types.UserSystem].closeCalls; got != 1 {
		t.Errorf("store should be closed on removal, got %d close calls", got)
	}
	if m.IsUserUnlocked(types.UserSystem) {
		t.Error("user should not be unlocked after removal")
	}
	if m.IsHistoryEnabled(types.UserSystem) {
		t.Error("enablement cache should be discarded on removal")
	}
}

func TestOnUserRemoved_userDoesNotExist(t *testing.T) {
	m := newFixture(t).manager

	m.OnUserRemoved(types.UserID(77))

	if m.DoesHistoryExistForUser(types.UserID(77)) {
		t.Error("history should not exist")
	}
	if m.IsUserUnlocked(types.UserID(77)) {
		t.Error("user should not be unlocked")
	}
}

func TestOnUserRemoved_cleanupPendingPackages(t *testing.T) {
	m := newFixture(t).manager

	m.OnUserUnlocked(types.UserSystem)
	m.OnUserStopped(types.UserSystem)
	m.OnPackageRemoved(types.UserSystem, "pkg")
	m.OnUserRemoved(types.UserSystem)

	if m.PendingPackageRemovalsForUser(types.UserSystem) != nil {
		t.Error("pending removals should be discarded on user removal")
	}
}

func TestOnPackageRemoved_userUnlocked(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	replacement := &fakeStore{}
	m.ReplaceStore(types.UserSystem, replacement)

	m.OnPackageRemoved(types.UserSystem, "pkg")

	if len(replacement.removedPkgs) != 1 || replacement.removedPkgs[0] != "pkg" {
		t.Errorf("expected immediate removal on store, got %v", replacement.removedPkgs)
	}
}

func TestOnPackageRemoved_userLocked(t *testing.T) {
	m := newFixture(t).manager

	m.OnPackageRemoved(types.UserSystem, "pkg")

	pending := m.PendingPackageRemovalsForUser(types.UserSystem)
	if len(pending) != 1 || pending[0] != "pkg" {
		t.Errorf("expected queued removal, got %v", pending)
	}
}

func TestOnPackageRemoved_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	m.OnPackageRemoved(types.UserSystem, "pkg")

	if m.PendingPackageRemovalsForUser(types.UserSystem) != nil {
		t.Error("removal for a disabled user should be dropped, not queued")
	}
}

func TestOnPackageRemoved_multiUser(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	storeSystem := &fakeStore{}
	m.ReplaceStore(types.UserSystem, storeSystem)

	m.OnUserUnlocked(userSecondary)
	storeSecondary := &fakeStore{}
	m.ReplaceStore(userSecondary, storeSecondary)

	m.OnPackageRemoved(types.UserSystem, "pkg")

	if len(storeSystem.removedPkgs) != 1 {
		t.Errorf("expected 1 removal on system store, got %d", len(storeSystem.removedPkgs))
	}
	if len(storeSecondary.removedPkgs) != 0 {
		t.Errorf("expected no removal on secondary store, got %d", len(storeSecondary.removedPkgs))
	}
}

func TestDeleteNotificationHistoryItem_userUnlocked(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	store := &fakeStore{}
	m.ReplaceStore(types.UserSystem, store)

	// uid 1 belongs to the system user's uid range.
	m.DeleteNotificationHistoryItem("pkg", 1, 235)

	if len(store.deletedKeys) != 1 || store.deletedKeys[0] != "pkg|235" {
		t.Errorf("expected delete of pkg|235, got %v", store.deletedKeys)
	}
}

func TestDeleteNotificationHistoryItem_userLocked(t *testing.T) {
	m := newFixture(t).manager

	// No unlock: must not crash, nothing to verify beyond that.
	m.DeleteNotificationHistoryItem("pkg", 1, 235)
}

func TestTriggerWriteToDisk(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	storeSystem := &fakeStore{}
	m.ReplaceStore(types.UserSystem, storeSystem)

	m.OnUserUnlocked(userSecondary)
	storeSecondary := &fakeStore{}
	m.ReplaceStore(userSecondary, storeSecondary)

	m.TriggerWriteToDisk()

	if storeSystem.flushCalls != 1 {
		t.Errorf("expected 1 flush on system store, got %d", storeSystem.flushCalls)
	}
	if storeSecondary.flushCalls != 1 {
		t.Errorf("expected 1 flush on secondary store, got %d", storeSecondary.flushCalls)
	}
}

func TestTriggerWriteToDisk_onlyUnlockedUsers(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	storeSystem := &fakeStore{}
	m.ReplaceStore(types.UserSystem, storeSystem)

	m.OnUserUnlocked(userSecondary)
	storeSecondary := &fakeStore{}
	m.ReplaceStore(userSecondary, storeSecondary)
	m.OnUserStopped(userSecondary)

	m.TriggerWriteToDisk()

	if storeSystem.flushCalls != 1 {
		t.Errorf("expected 1 flush on system store, got %d", storeSystem.flushCalls)
	}
	if storeSecondary.flushCalls != 0 {
		t.Errorf("stopped user's store should receive no flush, got %d", storeSecondary.flushCalls)
	}
}

func TestTriggerWriteToDisk_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	m.OnUserUnlocked(types.UserSystem)
	store := &fakeStore{}
	m.ReplaceStore(types.UserSystem, store)

	m.TriggerWriteToDisk()

	if store.flushCalls != 0 {
		t.Errorf("disabled user's store should receive no flush, got %d", store.flushCalls)
	}
}

func TestAddNotification_userLocked_noCrash(t *testing.T) {
	m := newFixture(t).manager

	m.AddNotification(historicalNotification("pkg", types.UserSystem))
}

func TestAddNotification_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	m.OnUserUnlocked(types.UserSystem)
	m.AddNotification(historicalNotification("pkg", types.UserSystem))

	for _, store := range fx.factory.stores {
		if len(store.added) != 0 {
			t.Errorf("no store should receive the record, got %v", store.added)
		}
	}
}

func TestAddNotification_routesToOwningUser(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	hnSystem := historicalNotification("pkg", types.UserSystem)
	hnSecondary := historicalNotification("pkg", userSecondary)

	m.OnUserUnlocked(types.UserSystem)
	storeSystem := &fakeStore{}
	m.ReplaceStore(types.UserSystem, storeSystem)

	m.OnUserUnlocked(userSecondary)
	storeSecondary := &fakeStore{}
	m.ReplaceStore(userSecondary, storeSecondary)

	m.AddNotification(hnSystem)
	m.AddNotification(hnSecondary)

	if len(storeSystem.added) != 1 || storeSystem.added[0] != hnSystem {
		t.Errorf("system store got %v", storeSystem.added)
	}
	if len(storeSecondary.added) != 1 || storeSecondary.added[0] != hnSecondary {
		t.Errorf("secondary store got %v", storeSecondary.added)
	}
}

func TestReadNotificationHistory(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	hnSystem := historicalNotification("pkg", types.UserSystem)
	hnSecondary := historicalNotification("pkg", userSecondary)

	m.OnUserUnlocked(types.UserSystem)
	nhSystem := types.NewNotificationHistory()
	nhSystem.AddNotificationToWrite(hnSystem)
	m.ReplaceStore(types.UserSystem, &fakeStore{readResult: nhSystem})

	m.OnUserUnlocked(userSecondary)
	nhSecondary := types.NewNotificationHistory()
	nhSecondary.AddNotificationToWrite(hnSecondary)
	m.ReplaceStore(userSecondary, &fakeStore{readResult: nhSecondary})

	got := m.ReadNotificationHistory([]types.UserID{types.UserSystem, userSecondary})

	records := got.NotificationsToWrite()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	found := map[types.HistoricalNotification]bool{}
	for _, r := range records {
		found[r] = true
	}
	if !found[hnSystem] || !found[hnSecondary] {
		t.Errorf("missing records in union: %v", records)
	}
}

func TestReadNotificationHistory_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	nh := types.NewNotificationHistory()
	nh.AddNotificationToWrite(historicalNotification("pkg", types.UserSystem))
	m.ReplaceStore(types.UserSystem, &fakeStore{readResult: nh})

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	got := m.ReadNotificationHistory([]types.UserID{types.UserSystem})
	if got.Count() != 0 {
		t.Errorf("expected empty union for disabled user, got %d", got.Count())
	}
}

func TestReadNotificationHistory_lockedUserContributesNothing(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	hn := historicalNotification("pkg", types.UserSystem)
	m.OnUserUnlocked(types.UserSystem)
	nh := types.NewNotificationHistory()
	nh.AddNotificationToWrite(hn)
	m.ReplaceStore(types.UserSystem, &fakeStore{readResult: nh})

	got := m.ReadNotificationHistory([]types.UserID{types.UserSystem, userSecondary})
	records := got.NotificationsToWrite()
	if len(records) != 1 || records[0] != hn {
		t.Errorf("expected only the unlocked user's record, got %v", records)
	}
}

func TestReadFilteredNotificationHistory_userLocked(t *testing.T) {
	m := newFixture(t).manager

	got := m.ReadFilteredNotificationHistory(types.UserSystem, "", "", 1000)
	if got.Count() != 0 {
		t.Errorf("expected empty history for locked user, got %d", got.Count())
	}
}

func TestReadFilteredNotificationHistory_historyDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	m.OnUserUnlocked(types.UserSystem)
	got := m.ReadFilteredNotificationHistory(types.UserSystem, "", "", 1000)
	if got.Count() != 0 {
		t.Errorf("expected empty history for disabled user, got %d", got.Count())
	}
}

func TestReadFilteredNotificationHistory_delegates(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	store := fx.factory.stores[types.UserSystem]

	m.ReadFilteredNotificationHistory(types.UserSystem, "pkg", "chn", 1000)

	if len(store.filtered) != 1 || store.filtered[0] != "pkg|chn|1000" {
		t.Errorf("expected delegated filter pkg|chn|1000, got %v", store.filtered)
	}
}

func TestIsHistoryEnabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	if !m.IsHistoryEnabled(types.UserSystem) {
		t.Error("history should default to enabled for known users")
	}

	m.OnUserUnlocked(types.UserSystem)
	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	if m.IsHistoryEnabled(types.UserSystem) {
		t.Error("history should be disabled after settings change")
	}
}

func TestSettingsUpdated_disableFlushesBeforeDestroy(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	store := fx.factory.stores[types.UserSystem]

	fx.settings.SetHistoryEnabled(types.UserSystem, false)
	m.SettingsUpdated(types.UserSystem)

	if store.disableCalls != 1 {
		t.Errorf("expected 1 disableHistory call, got %d", store.disableCalls)
	}

	// Re-enabling while unlocked opens a fresh store; the old one is not
	// disabled again.
	fx.settings.SetHistoryEnabled(types.UserSystem, true)
	m.SettingsUpdated(types.UserSystem)

	if store.disableCalls != 1 {
		t.Errorf("old store disabled again: %d calls", store.disableCalls)
	}
	if !m.DoesHistoryExistForUser(types.UserSystem) {
		t.Error("fresh store should be attached after re-enable")
	}
	fresh := fx.factory.stores[types.UserSystem]
	if fresh == store {
		t.Error("expected a fresh store instance after re-enable")
	}
	if fresh.initCalls != 1 {
		t.Errorf("fresh store should be initialized once, got %d", fresh.initCalls)
	}
}

func TestClose_flushesAndReleasesStores(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager

	m.OnUserUnlocked(types.UserSystem)
	store := fx.factory.stores[types.UserSystem]

	m.Close()

	if store.flushCalls != 1 {
		t.Errorf("expected 1 flush on shutdown, got %d", store.flushCalls)
	}
	if store.closeCalls != 1 {
		t.Errorf("expected 1 close on shutdown, got %d", store.closeCalls)
	}
}

func TestStart_ignoresUnknownUsersUntilSeen(t *testing.T) {
	m := newFixture(t).manager

	if m.IsHistoryEnabled(types.UserID(42)) {
		t.Error("users outside the enumeration report disabled until seen")
	}

	m.OnUserUnlocked(types.UserID(42))
	if !m.IsHistoryEnabled(types.UserID(42)) {
		t.Error("first lifecycle event populates the cache from settings")
	}
}
