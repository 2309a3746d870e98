// Package settings implements the per-user "history enabled" setting as a
// watched YAML file. Absent entries mean enabled; only explicit values are
// persisted.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ledgerline/notifhist/pkg/types"
)

// FileName is the settings file inside the config directory.
const FileName = "settings.yaml"

// settingsFile is the on-disk shape: user id (decimal string) to flag.
type settingsFile struct {
	HistoryEnabled map[string]bool `yaml:"history_enabled"`
}

// Store implements types.Settings backed by a YAML file.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[types.UserID]bool
}

// NewStore loads the settings file at path. A missing file is an empty
// store, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[types.UserID]bool)}
	values, err := s.load()
	if err != nil {
		return nil, err
	}
	s.values = values
	return s, nil
}

// load reads the file through viper and returns the explicit entries.
func (s *Store) load() (map[types.UserID]bool, error) {
	values := make(map[types.UserID]bool)

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return values, nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	for key, enabled := range v.GetStringMap("history_enabled") {
		id, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			// Unparseable keys are ignored rather than fatal.
			continue
		}
		b, ok := enabled.(bool)
		if !ok {
			continue
		}
		values[types.UserID(id)] = b
	}
	return values, nil
}

// HistoryEnabled reports the user's flag; absent means enabled.
func (s *Store) HistoryEnabled(userID types.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[userID]
	if !ok {
		return true
	}
	return v
}

// SetHistoryEnabled records an explicit value and persists the file
// atomically.
func (s *Store) SetHistoryEnabled(userID types.UserID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[userID] = enabled
	return s.persistLocked()
}

// RemoveUser drops the user's explicit entry, reverting to the default.
func (s *Store) RemoveUser(userID types.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[userID]; !ok {
		return nil
	}
	delete(s.values, userID)
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	out := settingsFile{HistoryEnabled: make(map[string]bool, len(s.values))}
	for id, enabled := range s.values {
		out.HistoryEnabled[strconv.FormatInt(int64(id), 10)] = enabled
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming settings: %w", err)
	}
	return nil
}

// Reload re-reads the file and returns the ids whose effective value
// changed, including entries that disappeared (reverting to enabled).
func (s *Store) Reload() ([]types.UserID, error) {
	fresh, err := s.load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []types.UserID
	for id, v := range fresh {
		old, ok := s.values[id]
		if !ok || old != v {
			changed = append(changed, id)
		}
	}
	for id := range s.values {
		if _, ok := fresh[id]; !ok {
			changed = append(changed, id)
		}
	}
	s.values = fresh
	return changed, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}
