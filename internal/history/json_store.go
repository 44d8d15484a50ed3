package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheMichaelB/sealshare/internal/events"
)

// JSONStore keeps the history in a single checksummed JSON file.
type JSONStore struct {
	path       string
	maxEntries int
	logger     *events.Logger

	mu sync.Mutex
}

// historyFile is the on-disk layout.
type historyFile struct {
	SchemaVersion int       `json:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at"`
	Entries       []*Entry  `json:"entries"`
	Checksum      string    `json:"checksum,omitempty"`
}

// NewJSONStore creates a JSON-backed history store.
func NewJSONStore(path string, maxEntries int, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	return &JSONStore{
		path:       path,
		maxEntries: maxEntries,
		logger:     logger.WithField("component", "json_history_store"),
	}, nil
}

// Add records an entry.
func (s *JSONStore) Add(entry *Entry) error {
	if err := prepare(entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.ID == entry.ID {
			return fmt.Errorf("history entry %s already exists", entry.ID)
		}
	}

	copied := *entry
	entries = append([]*Entry{&copied}, entries...)
	sortNewestFirst(entries)

	if s.maxEntries > 0 && len(entries) > s.maxEntries {
		s.logger.WithField("dropped", len(entries)-s.maxEntries).Debug("Trimming history")
		entries = entries[:s.maxEntries]
	}

	return s.save(entries)
}

// Get finds an entry.
func (s *JSONStore) Get(ref string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.Matches(ref) {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// List returns entries newest first.
func (s *JSONStore) List() ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Remove deletes an entry.
func (s *JSONStore) Remove(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	for i, e := range entries {
		if e.Matches(ref) {
			entries = append(entries[:i], entries[i+1:]...)
			return s.save(entries)
		}
	}
	return ErrEntryNotFound
}

// Clear removes the history file and its backup.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Clearing history")

	for _, p := range []string{s.path, s.backupPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// Prune drops expired entries.
func (s *JSONStore) Prune(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return 0, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if !e.Expired(now) {
			kept = append(kept, e)
		}
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(kept)
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

// Helper methods

func (s *JSONStore) backupPath() string {
	return s.path + ".backup"
}

// load reads the history file. A missing file is an empty history.
func (s *JSONStore) load() ([]*Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	entries, err := decodeHistory(data)
	if err != nil {
		s.logger.WithError(err).Warn("History file unreadable, trying backup")
		if backup, berr := os.ReadFile(s.backupPath()); berr == nil {
			if entries, berr := decodeHistory(backup); berr == nil {
				s.logger.Warn("Loaded history from backup due to corruption")
				return entries, nil
			}
		}
		return nil, ErrHistoryCorrupt
	}

	return entries, nil
}

func decodeHistory(data []byte) ([]*Entry, error) {
	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	if file.Checksum != "" {
		calculated, err := checksum(file)
		if err != nil {
			return nil, err
		}
		if calculated != file.Checksum {
			return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", file.Checksum, calculated)
		}
	}

	if file.Entries == nil {
		file.Entries = []*Entry{}
	}
	sortNewestFirst(file.Entries)
	return file.Entries, nil
}

// checksum hashes the file with its checksum field cleared.
func checksum(file historyFile) (string, error) {
	file.Checksum = ""
	data, err := json.Marshal(file)
	if err != nil {
		return "", fmt.Errorf("marshal history for checksum: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// save writes entries atomically, keeping the previous file as a backup.
func (s *JSONStore) save(entries []*Entry) error {
	file := historyFile{
		SchemaVersion: CurrentSchemaVersion,
		UpdatedAt:     time.Now().UTC(),
		Entries:       entries,
	}

	sum, err := checksum(file)
	if err != nil {
		return err
	}
	file.Checksum = sum

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	// Create backup of existing file
	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.backupPath()); err != nil {
			s.logger.WithError(err).Warn("Failed to create backup")
		}
	}

	// Write atomically
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if f, err := os.Open(tmpPath); err == nil {
		_ = f.Sync()
		f.Close()
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename history file: %w", err)
	}

	s.logger.WithField("entries", len(entries)).Debug("Saved history")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
