// Package store persists user settings and query history in a local SQLite
// database. The database is a convenience, not a requirement: callers treat
// a missing or failed store as empty defaults.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Setting keys used by the application.
const (
	KeyTmsuPath     = "tmsu_path"
	KeyExiftoolPath = "exiftool_path"
	KeyLastDir      = "last_dir"
)

// historyLimit bounds the retained query expressions.
const historyLimit = 50

// DB wraps the settings database. Methods are safe for use from multiple
// goroutines; sql.DB serializes access.
type DB struct {
	conn *sql.DB
}

// NewDB returns an unopened store.
func NewDB() *DB { return &DB{} }

// Open initializes the database connection and schema.
func (d *DB) Open(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// WAL mode allows simultaneous readers and writers; NORMAL sync is safe
	// against app crashes and faster than FULL.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS query_history (
		expr TEXT PRIMARY KEY,
		used_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	d.conn = db
	return nil
}

// Setting returns the stored value for key, with ok=false when absent or
// the store is unopened.
func (d *DB) Setting(key string) (string, bool) {
	if d.conn == nil {
		return "", false
	}
	var value string
	err := d.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// SetSetting upserts a setting. Errors are logged, not propagated: losing a
// preference must never disturb the session.
func (d *DB) SetSetting(key, value string) {
	if d.conn == nil {
		return
	}
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		zap.S().Errorw("saving setting failed", "key", key, "err", err)
	}
}

// AddQuery records a query expression, refreshing its recency and pruning
// the history beyond the retention limit.
func (d *DB) AddQuery(expr string) {
	if d.conn == nil || expr == "" {
		return
	}
	// Millisecond timestamps keep recency ordering stable for queries
	// issued within the same second.
	_, err := d.conn.Exec(
		"INSERT OR REPLACE INTO query_history (expr, used_at) VALUES (?, strftime('%Y-%m-%d %H:%M:%f','now'))", expr)
	if err != nil {
		zap.S().Errorw("saving query history failed", "err", err)
		return
	}
	_, err = d.conn.Exec(`
		DELETE FROM query_history WHERE expr NOT IN (
			SELECT expr FROM query_history ORDER BY used_at DESC LIMIT ?
		)`, historyLimit)
	if err != nil {
		zap.S().Errorw("pruning query history failed", "err", err)
	}
}

// RecentQueries returns up to limit expressions, most recent first.
func (d *DB) RecentQueries(limit int) []string {
	if d.conn == nil {
		return nil
	}
	rows, err := d.conn.Query(
		"SELECT expr FROM query_history ORDER BY used_at DESC LIMIT ?", limit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var exprs []string
	for rows.Next() {
		var expr string
		if err := rows.Scan(&expr); err == nil {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}

// Close releases the database.
func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
