package server

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// Build outcomes stored in the log.
const (
	BuildOK     = "ok"
	BuildFailed = "failed"
)

// BuildLog records dev server builds in a SQLite database so the history
// survives restarts.
type BuildLog struct {
	mu          sync.RWMutex
	db          *sql.DB
	path        string
	maxSize     int64 // Maximum database size in bytes (default 10MB)
	truncatePct int   // Percentage to delete when truncating (default 25)
}

// BuildRecord is one build.
type BuildRecord struct {
	ID          int64         `json:"id"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"duration_ms"`
	Reason      string        `json:"reason"`
	Status      string        `json:"status"`
	Pages       int           `json:"pages"`
	Handlers    int           `json:"handlers"`
	Warnings    int           `json:"warnings"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// BuildLogConfig holds configuration for the build log.
type BuildLogConfig struct {
	Path        string // Database file path
	MaxSize     int64  // Max size in bytes (default 10MB)
	TruncatePct int    // Percentage to delete when truncating (default 25%)
}

// NewBuildLog opens (creating if needed) the build log database.
func NewBuildLog(cfg BuildLogConfig) (*BuildLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("build log path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening build log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to build log database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	bl := &BuildLog{
		db:          db,
		path:        cfg.Path,
		maxSize:     cfg.MaxSize,
		truncatePct: cfg.TruncatePct,
	}
	if bl.maxSize == 0 {
		bl.maxSize = 10 * 1024 * 1024 // 10MB
	}
	if bl.truncatePct == 0 {
		bl.truncatePct = 25
	}

	if err := bl.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating build log schema: %w", err)
	}

	return bl, nil
}

func (bl *BuildLog) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			handlers INTEGER NOT NULL DEFAULT 0,
			warnings INTEGER NOT NULL DEFAULT 0,
			fingerprint TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := bl.db.Exec(schema)
	return err
}

// Record writes one build.
func (bl *BuildLog) Record(rec BuildRecord) error {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if err := bl.maybeAutoTruncate(); err != nil {
		// Log truncation errors but don't fail the record operation
		fmt.Fprintf(os.Stderr, "[WARN] build log truncation failed: %v\n", err)
	}

	_, err := bl.db.Exec(`
		INSERT INTO builds (started, duration_ms, reason, status, pages, handlers, warnings, fingerprint, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Started.UTC().Format(time.RFC3339Nano), rec.Duration.Milliseconds(), rec.Reason, rec.Status,
		rec.Pages, rec.Handlers, rec.Warnings, rec.Fingerprint, rec.Message)
	return err
}

// Recent returns up to limit builds, newest first.
func (bl *BuildLog) Recent(limit int) ([]BuildRecord, error) {
	bl.mu.RLock()
	defer bl.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := bl.db.Query(`
		SELECT id, started, duration_ms, reason, status, pages, handlers, warnings, fingerprint, message
		FROM builds
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started string
		if err := rows.Scan(&rec.ID, &started, &rec.DurationMs, &rec.Reason, &rec.Status,
			&rec.Pages, &rec.Handlers, &rec.Warnings, &rec.Fingerprint, &rec.Message); err != nil {
			return nil, fmt.Errorf("scanning build record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			rec.Started = t
		}
		rec.Duration = time.Duration(rec.DurationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of recorded builds.
func (bl *BuildLog) Count() (int, error) {
	bl.mu.RLock()
	defer bl.mu.RUnlock()

	var count int
	err := bl.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&count)
	return count, err
}

// Clear deletes all recorded builds.
func (bl *BuildLog) Clear() error {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	_, err := bl.db.Exec("DELETE FROM builds")
	return err
}

// maybeAutoTruncate checks database size and deletes the oldest builds if
// needed. Must be called with lock held.
func (bl *BuildLog) maybeAutoTruncate() error {
	info, err := os.Stat(bl.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < bl.maxSize {
		return nil
	}

	var total int
	if err := bl.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&total); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	deleteCount := (total * bl.truncatePct) / 100
	if deleteCount == 0 {
		deleteCount = 1
	}

	_, err = bl.db.Exec(`
		DELETE FROM builds WHERE id IN (
			SELECT id FROM builds ORDER BY id ASC LIMIT ?
		)
	`, deleteCount)
	if err != nil {
		return fmt.Errorf("truncating build log: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (bl *BuildLog) Close() error {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return bl.db.Close()
}

// Path returns the path to the database file.
func (bl *BuildLog) Path() string {
	return bl.path
}
