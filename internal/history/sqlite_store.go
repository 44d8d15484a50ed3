package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/sealshare/internal/events"
)

// SQLiteStore keeps the history in a SQLite database.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	logger     *events.Logger
}

// NewSQLiteStore creates a SQLite history store.
func NewSQLiteStore(dbPath string, maxEntries int, logger *events.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	// Entries hold key-bearing links and delete tokens
	if err := restrictFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:         db,
		maxEntries: maxEntries,
		logger:     logger.WithField("component", "sqlite_history_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	// SQLite copies the database mode onto these; tighten leftovers from older runs
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Chmod(dbPath+suffix, 0600); err != nil && !os.IsNotExist(err) {
			db.Close()
			return nil, fmt.Errorf("restrict %s: %w", dbPath+suffix, err)
		}
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS history_entries (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        snippet_id TEXT NOT NULL,
        url TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        language TEXT NOT NULL DEFAULT '',
        password_protected INTEGER NOT NULL DEFAULT 0,
        delete_token TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        expires_at INTEGER
    );

    CREATE INDEX IF NOT EXISTS idx_history_snippet ON history_entries(snippet_id);
    CREATE INDEX IF NOT EXISTS idx_history_created ON history_entries(created_at);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

const selectColumns = `
    SELECT id, snippet_id, url, title, language, password_protected,
           delete_token, created_at, expires_at
    FROM history_entries`

const newestFirst = ` ORDER BY created_at DESC, seq DESC`

// Add records an entry and trims the oldest beyond the cap.
func (s *SQLiteStore) Add(entry *Entry) error {
	if err := prepare(entry); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var expiresAt sql.NullInt64
	if entry.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: entry.ExpiresAt.UnixNano(), Valid: true}
	}

	_, err = tx.Exec(`
        INSERT INTO history_entries
            (id, snippet_id, url, title, language, password_protected,
             delete_token, created_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.SnippetID, entry.URL, entry.Title, entry.Language,
		entry.PasswordProtected, entry.DeleteToken, entry.CreatedAt.UnixNano(), expiresAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	if s.maxEntries > 0 {
		res, err := tx.Exec(`
            DELETE FROM history_entries WHERE seq NOT IN (
                SELECT seq FROM history_entries`+newestFirst+` LIMIT ?
            )
        `, s.maxEntries)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.WithField("dropped", n).Debug("Trimming history")
		}
	}

	return tx.Commit()
}

// Get finds an entry.
func (s *SQLiteStore) Get(ref string) (*Entry, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = ? OR snippet_id = ?`+newestFirst+` LIMIT 1`, ref, ref)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	return entry, nil
}

// List returns entries newest first.
func (s *SQLiteStore) List() ([]*Entry, error) {
	rows, err := s.db.Query(selectColumns + newestFirst)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Remove deletes an entry.
func (s *SQLiteStore) Remove(ref string) error {
	res, err := s.db.Exec(`
        DELETE FROM history_entries WHERE seq = (
            SELECT seq FROM history_entries WHERE id = ? OR snippet_id = ?`+newestFirst+` LIMIT 1
        )
    `, ref, ref)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Clear deletes every entry.
func (s *SQLiteStore) Clear() error {
	s.logger.Info("Clearing history")

	if _, err := s.db.Exec("DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Prune drops expired entries.
func (s *SQLiteStore) Prune(now time.Time) (int, error) {
	res, err := s.db.Exec(`
        DELETE FROM history_entries
        WHERE expires_at IS NOT NULL AND expires_at <= ?
    `, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// restrictFile creates path if needed and makes it owner-only.
func restrictFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	f.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("restrict database file: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry     Entry
		createdAt int64
		expiresAt sql.NullInt64
	)

	err := row.Scan(&entry.ID, &entry.SnippetID, &entry.URL, &entry.Title, &entry.Language,
		&entry.PasswordProtected, &entry.DeleteToken, &createdAt, &expiresAt)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		entry.ExpiresAt = &t
	}

	return &entry, nil
}
