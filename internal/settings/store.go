package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File permission constants.
const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Store owns the runtime settings document.
//
// All access is serialised by a single lock: Get returns a value copy taken
// under the lock, Apply replaces the whole document atomically. Readers can
// never observe a half-applied patch.
//
// The settings lock is never held together with any other lock and never
// across I/O other than the persist write inside Apply.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// NewStore loads the settings store from the given JSON document path.
//
// A missing file is not an error: defaults are used and nothing is written
// until the first successful Apply. A present-but-unreadable document is an
// error, surfaced at startup rather than silently replaced by defaults.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    path,
		current: Default(),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	// Decode over defaults so documents written by older versions keep
	// default values for fields they don't carry.
	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}

	s.current = loaded
	return s, nil
}

// Get returns a copy of the current settings snapshot.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply merges a partial patch over the current settings, validates the
// result, persists it, and atomically replaces the in-memory document.
//
// On validation failure (ErrInvalid) or persist failure (ErrPersist) the
// prior settings remain in effect, both in memory and on disk.
func (s *Store) Apply(p Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.applyTo(s.current)
	if err := next.Validate(); err != nil {
		return s.current, err
	}

	if err := s.persist(next); err != nil {
		return s.current, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.current = next
	return next, nil
}

// Path returns the filesystem path of the persisted settings document.
func (s *Store) Path() string {
	return s.path
}

// persist writes the settings document, creating the directory if needed.
// Write-then-rename keeps a crash mid-write from corrupting the document.
func (s *Store) persist(v Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPermissions); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}
