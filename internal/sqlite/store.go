package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ledgerline/notifhist/pkg/types"
)

// dbFileName is the per-user SQLite database inside the user directory.
const dbFileName = "history.db"

// Store implements types.Store for a single user. SQLite is the query
// engine; the JSONL mirror is refreshed by ForceWriteToDisk so the log
// survives in a git-friendly form alongside the database.
type Store struct {
	mu       sync.RWMutex
	open     bool
	disabled bool

	userID    types.UserID
	dir       string // per-user data directory
	retention int    // days

	db  *sql.DB
	log *zap.Logger

	// Mirror state: dirty marks rows changed since the last flush.
	flushMu sync.Mutex
	dirty   bool
}

// newStore returns an unopened store for one user. Callers must Init.
func newStore(userID types.UserID, dir string, retentionDays int, log *zap.Logger) *Store {
	return &Store{
		userID:    userID,
		dir:       dir,
		retention: retentionDays,
		log:       log,
	}
}

// newUUID generates a UUID v7 string for record ids.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Init opens the backing database, applies the schema, recovers from the
// JSONL mirror when the database is empty, and prunes expired records.
// Idempotent: a second Init on an open store is a no-op.
// Returns ErrStoreClosed after DisableHistory.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return types.ErrStoreClosed
	}
	if s.open {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(s.dir, dbFileName))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	s.db = db
	s.open = true

	if err := s.recoverFromMirror(); err != nil {
		// Recovery is best-effort; a damaged mirror must not block init.
		s.log.Warn("mirror recovery failed",
			zap.Int32("user", int32(s.userID)), zap.Error(err))
	}
	if err := s.pruneExpired(); err != nil {
		s.log.Warn("retention prune failed",
			zap.Int32("user", int32(s.userID)), zap.Error(err))
	}
	return nil
}

// recoverFromMirror reloads records from history.jsonl when the database
// has no rows but a mirror exists, e.g. after the database file was lost.
func (s *Store) recoverFromMirror() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&count); err != nil {
		return fmt.Errorf("counting rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	path := filepath.Join(s.dir, mirrorFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	records, err := readJSONL(path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		var n types.HistoricalNotification
		if err := json.Unmarshal(rec, &n); err != nil {
			continue
		}
		if err := s.insertLocked(n); err != nil {
			return err
		}
	}
	return nil
}

// pruneExpired deletes records older than the retention period.
func (s *Store) pruneExpired() error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -s.retention).UnixMilli()
	res, err := s.db.Exec("DELETE FROM notifications WHERE posted_time < ?", cutoff)
	if err != nil {
		return fmt.Errorf("pruning expired records: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		s.markDirty()
	}
	return nil
}

// AddNotification appends one record to the log.
func (s *Store) AddNotification(n types.HistoricalNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	if n.Package == "" {
		return types.ErrInvalidData
	}
	if err := s.insertLocked(n); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *Store) insertLocked(n types.HistoricalNotification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications
			(notification_id, package, channel_id, channel_name, uid, user_id, posted_time, title, text, icon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newUUID(), n.Package, n.ChannelID, n.ChannelName, n.UID,
		int32(n.UserID), n.PostedTime, n.Title, n.Text, n.Icon)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// OnPackageRemoved deletes every record posted by pkg.
func (s *Store) OnPackageRemoved(pkg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	if _, err := s.db.Exec("DELETE FROM notifications WHERE package = ?", pkg); err != nil {
		return fmt.Errorf("deleting package records: %w", err)
	}
	s.markDirty()
	return nil
}

// DeleteNotificationHistoryItem deletes the record matching pkg and
// postedTime. Missing records are not an error.
func (s *Store) DeleteNotificationHistoryItem(pkg string, postedTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	if _, err := s.db.Exec(
		"DELETE FROM notifications WHERE package = ? AND posted_time = ?",
		pkg, postedTime); err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	s.markDirty()
	return nil
}

// ReadNotificationHistory returns every record in posting order.
func (s *Store) ReadNotificationHistory() (*types.NotificationHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}
	return s.queryLocked(
		"SELECT package, channel_id, channel_name, uid, user_id, posted_time, title, text, icon "+
			"FROM notifications ORDER BY posted_time ASC")
}

// ReadFilteredNotificationHistory returns records matching the package and
// channel filters, newest first, capped at maxCount. Empty filters match
// everything; a maxCount of zero means unlimited, a negative one is
// rejected with ErrInvalidFilter.
func (s *Store) ReadFilteredNotificationHistory(pkgFilter, channelFilter string, maxCount int) (*types.NotificationHistory, error) {
	if maxCount < 0 {
		return nil, types.ErrInvalidFilter
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}

	query := "SELECT package, channel_id, channel_name, uid, user_id, posted_time, title, text, icon " +
		"FROM notifications"
	var conditions []string
	var args []any

	if pkgFilter != "" {
		conditions = append(conditions, "package = ?")
		args = append(args, pkgFilter)
	}
	if channelFilter != "" {
		conditions = append(conditions, "channel_id = ?")
		args = append(args, channelFilter)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY posted_time DESC"
	if maxCount > 0 {
		query += fmt.Sprintf(" LIMIT %d", maxCount)
	}

	return s.queryLocked(query, args...)
}

func (s *Store) queryLocked(query string, args ...any) (*types.NotificationHistory, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	history := types.NewNotificationHistory()
	for rows.Next() {
		var n types.HistoricalNotification
		var userID int32
		if err := rows.Scan(&n.Package, &n.ChannelID, &n.ChannelName, &n.UID,
			&userID, &n.PostedTime, &n.Title, &n.Text, &n.Icon); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.UserID = types.UserID(userID)
		history.AddNotificationToWrite(n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// ForceWriteToDisk rewrites the JSONL mirror if rows changed since the
// last flush. A clean store is a no-op.
func (s *Store) ForceWriteToDisk() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	return s.flushLocked()
}

// flushLocked writes the mirror under flushMu. Callers hold s.mu (read or
// write); flushMu serializes concurrent flushes against each other.
func (s *Store) flushLocked() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if !s.dirty {
		return nil
	}

	history, err := s.queryLocked(
		"SELECT package, channel_id, channel_name, uid, user_id, posted_time, title, text, icon " +
			"FROM notifications ORDER BY posted_time ASC")
	if err != nil {
		return err
	}

	var records []json.RawMessage
	for _, n := range history.NotificationsToWrite() {
		rec, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshaling notification: %w", err)
		}
		records = append(records, rec)
	}
	if err := writeJSONL(filepath.Join(s.dir, mirrorFileName), records); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Close flushes the mirror and releases the database handle without
// destroying data. The store can be re-initialized with Init. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		s.log.Warn("flush before close failed",
			zap.Int32("user", int32(s.userID)), zap.Error(err))
	}
	err := s.db.Close()
	s.db = nil
	s.open = false
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// DisableHistory flushes the mirror, then irreversibly destroys the
// store's data and closes it. Subsequent operations, including Init,
// return ErrStoreClosed.
func (s *Store) DisableHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil
	}

	if s.open {
		// Flush before destroy so shutdown racing a disable never leaves a
		// stale mirror behind the deleted database.
		if err := s.flushLocked(); err != nil {
			s.log.Warn("flush before disable failed",
				zap.Int32("user", int32(s.userID)), zap.Error(err))
		}
		if _, err := s.db.Exec("DELETE FROM notifications"); err != nil {
			s.log.Warn("clearing notifications failed",
				zap.Int32("user", int32(s.userID)), zap.Error(err))
		}
		if err := s.db.Close(); err != nil {
			s.log.Warn("closing database failed",
				zap.Int32("user", int32(s.userID)), zap.Error(err))
		}
		s.db = nil
		s.open = false
	}

	if err := os.RemoveAll(s.dir); err != nil {
		s.disabled = true
		return fmt.Errorf("removing store dir: %w", err)
	}
	s.disabled = true
	return nil
}

func (s *Store) markDirty() {
	s.flushMu.Lock()
	s.dirty = true
	s.flushMu.Unlock()
}
