package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"
)

// ProfileStore caches the profile document and writes replacements through
// to disk before they become visible.
type ProfileStore struct {
	mu      sync.RWMutex
	path    string
	profile types.Profile
	loaded  bool
	logger  *errors.Logger
}

// NewProfileStore creates a store for the document at path. Call Load before use.
func NewProfileStore(path string, logger *errors.Logger) *ProfileStore {
	return &ProfileStore{path: path, logger: logger}
}

// Path returns the backing file path
func (s *ProfileStore) Path() string {
	return s.path
}

// Load reads and validates the profile document
func (s *ProfileStore) Load() error {
	profile, err := readProfile(s.path)
	if err != nil {
		return err
	}

	s.warnFormats(profile)

	s.mu.Lock()
	s.profile = profile
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Profile loaded", "path", s.path)
	return nil
}

// Reload re-reads the document. A failed reload keeps the cached profile.
func (s *ProfileStore) Reload() error {
	profile, err := readProfile(s.path)
	if err != nil {
		s.logger.LogError(err, "Profile reload failed, keeping cached profile", "path", s.path)
		return err
	}

	s.warnFormats(profile)

	s.mu.Lock()
	s.profile = profile
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Profile reloaded", "path", s.path)
	return nil
}

// Loaded reports whether a profile has been loaded
func (s *ProfileStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get returns a copy of the cached profile
func (s *ProfileStore) Get() types.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Normalized()
}

// Replace persists profile, then makes it the cached value. The cache is
// left untouched when persisting fails.
func (s *ProfileStore) Replace(profile types.Profile) (types.Profile, error) {
	profile = profile.Normalized()
	s.warnFormats(profile)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeProfile(s.path, profile); err != nil {
		return types.Profile{}, err
	}
	s.profile = profile
	s.loaded = true

	s.logger.Info("Profile replaced", "path", s.path)
	return profile.Normalized(), nil
}

func (s *ProfileStore) warnFormats(profile types.Profile) {
	for _, w := range ProfileWarnings(profile) {
		s.logger.Warn("Profile field has an unexpected format", "path", s.path, "check", w)
	}
}

func readProfile(path string) (types.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Profile{}, errors.NewIOError(errors.ErrCodeProfileNotFound,
				fmt.Sprintf("profile document %s is missing", path), err)
		}
		return types.Profile{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to read profile document %s", path), err)
	}
	return ParseProfile(raw)
}

// writeProfile replaces the document atomically: temp file, fsync, rename
func writeProfile(path string, profile types.Profile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeProfilePersistFailed, "failed to encode profile", err)
	}

	fail := func(err error) error {
		return errors.NewIOError(errors.ErrCodeProfilePersistFailed,
			fmt.Sprintf("failed to persist profile to %s", path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fail(err)
	}
	return nil
}
