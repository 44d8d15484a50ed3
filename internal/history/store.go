package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/events"
)

// Store persists the local list of shared snippets.
type Store interface {
	// Add records a share. A missing ID or CreatedAt is filled in.
	Add(entry *Entry) error

	// Get finds an entry by its ID or by snippet ID.
	Get(ref string) (*Entry, error)

	// List returns all entries, newest first.
	List() ([]*Entry, error)

	// Remove deletes an entry by its ID or by snippet ID.
	Remove(ref string) error

	// Clear deletes every entry.
	Clear() error

	// Prune drops entries that expired at or before now.
	Prune(now time.Time) (int, error)

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrEntryNotFound  = errors.New("history entry not found")
	ErrHistoryCorrupt = errors.New("history file is corrupt")
)

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// Entry is one shared snippet.
type Entry struct {
	ID                string     `json:"id"`
	SnippetID         string     `json:"snippet_id"`
	URL               string     `json:"url"`
	Title             string     `json:"title,omitempty"`
	Language          string     `json:"language,omitempty"`
	PasswordProtected bool       `json:"password_protected"`
	DeleteToken       string     `json:"delete_token,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry expired at or before now.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// Matches reports whether ref names this entry.
func (e *Entry) Matches(ref string) bool {
	return ref != "" && (e.ID == ref || e.SnippetID == ref)
}

// prepare fills defaults before an entry is stored.
func prepare(entry *Entry) error {
	if entry.SnippetID == "" {
		return fmt.Errorf("history entry has no snippet id")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if entry.ExpiresAt != nil {
		t := entry.ExpiresAt.UTC()
		entry.ExpiresAt = &t
	}
	return nil
}

// sortNewestFirst orders entries by creation time, keeping the existing
// order for ties.
func sortNewestFirst(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Open creates the store selected by cfg.
func Open(cfg *config.HistoryConfig, logger *events.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "json":
		return NewJSONStore(filepath.Join(cfg.Dir, "history.json"), cfg.MaxEntries, logger)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(cfg.Dir, "history.db"), cfg.MaxEntries, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Migrate copies every entry from src into dst, oldest first so the
// destination keeps the same order.
func Migrate(src, dst Store) (int, error) {
	entries, err := src.List()
	if err != nil {
		return 0, fmt.Errorf("list source: %w", err)
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if err := dst.Add(entries[i]); err != nil {
			return len(entries) - 1 - i, fmt.Errorf("add %s: %w", entries[i].ID, err)
		}
	}

	return len(entries), nil
}
