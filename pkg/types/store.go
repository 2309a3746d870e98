package types

import "errors"

// Store is the durable log of one user's historical notification records.
// A store is produced by a StoreFactory, initialized once with Init, and
// is unusable after DisableHistory.
type Store interface {
	// Init performs idempotent setup: opening the backing database and
	// pruning expired records. Safe to call more than once.
	Init() error

	// AddNotification appends one record to the log.
	AddNotification(n HistoricalNotification) error

	// OnPackageRemoved deletes every record posted by pkg.
	OnPackageRemoved(pkg string) error

	// DeleteNotificationHistoryItem deletes the single record matching
	// pkg and postedTime. Missing records are not an error.
	DeleteNotificationHistoryItem(pkg string, postedTime int64) error

	// ReadNotificationHistory returns every record in the log.
	ReadNotificationHistory() (*NotificationHistory, error)

	// ReadFilteredNotificationHistory returns records matching the package
	// and channel filters, newest first, capped at maxCount. Empty filter
	// strings match everything; a maxCount of zero means unlimited and a
	// negative maxCount is rejected with ErrInvalidFilter.
	ReadFilteredNotificationHistory(pkgFilter, channelFilter string, maxCount int) (*NotificationHistory, error)

	// ForceWriteToDisk flushes any buffered writes to durable storage.
	ForceWriteToDisk() error

	// Close flushes buffered writes and releases the store's resources
	// without destroying data. A closed store may be re-initialized.
	Close() error

	// DisableHistory flushes buffered writes, then irreversibly destroys
	// the store's data. The store is closed afterwards.
	DisableHistory() error
}

// StoreFactory produces or opens the per-user Store for a given user id.
// The history manager holds a factory supplied at construction; tests
// substitute a fake.
type StoreFactory interface {
	OpenStore(userID UserID) (Store, error)
}

// Store lifecycle errors.
var (
	ErrStoreClosed   = errors.New("store is closed")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidData   = errors.New("invalid data")
)
