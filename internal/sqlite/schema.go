// Package sqlite implements the per-user notification history store on
// SQLite as the query engine, with a JSONL mirror flushed on demand for
// durable, diff-friendly persistence.
package sqlite

// Schema DDL for the per-user history database. CREATE IF NOT EXISTS keeps
// Init idempotent across process restarts.
const schemaSQL = `CREATE TABLE IF NOT EXISTS notifications (
    notification_id TEXT PRIMARY KEY,
    package TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    channel_name TEXT NOT NULL,
    uid INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    posted_time INTEGER NOT NULL,
    title TEXT NOT NULL,
    text TEXT NOT NULL,
    icon TEXT
);

CREATE INDEX IF NOT EXISTS idx_notifications_package
    ON notifications(package);

CREATE INDEX IF NOT EXISTS idx_notifications_posted_time
    ON notifications(posted_time);
`
