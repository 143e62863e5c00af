package effort

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/conductor/internal/errors"
)

const (
	stateFileName  = "state.json"
	signalsDirName = "signals"
	issuesDirName  = "issues"
)

// Store persists effort state documents under a root directory, one
// directory per effort:
//
//	<root>/<effort-id>/state.json
//	<root>/<effort-id>/signals/
//	<root>/<effort-id>/issues/
//
// Writes are optimistic: callers load a version token alongside the
// document and pass it back on save, which fails with ErrStaleState if
// another writer got there first. The mutex only serializes writers in
// the same process; cross-process safety comes from the version check
// plus atomic rename.
type Store struct {
	mu   sync.Mutex
	root string
}

// NewStore returns a store rooted at dir, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.NewValidationError("storage root cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// EffortDir returns the directory holding everything about one effort.
func (s *Store) EffortDir(effortID string) string {
	return filepath.Join(s.root, effortID)
}

// SignalsDir returns the append-only signal directory for an effort.
func (s *Store) SignalsDir(effortID string) string {
	return filepath.Join(s.root, effortID, signalsDirName)
}

// IssuesDir returns the directory holding audit issue documents.
func (s *Store) IssuesDir(effortID string) string {
	return filepath.Join(s.root, effortID, issuesDirName)
}

func (s *Store) statePath(effortID string) string {
	return filepath.Join(s.root, effortID, stateFileName)
}

// Exists reports whether a state document exists for the effort.
func (s *Store) Exists(effortID string) bool {
	_, err := os.Stat(s.statePath(effortID))
	return err == nil
}

// Create persists a brand-new effort. It fails with AlreadyExistsError if
// the effort already has a state document, and prepares the signal
// directory so workers can emit immediately.
func (s *Store) Create(ctx context.Context, e *Effort) error {
	if err := ValidateEffortID(e.ID); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := e.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Exists(e.ID) {
		return errors.NewAlreadyExistsError("effort", e.ID)
	}
	if err := os.MkdirAll(s.SignalsDir(e.ID), 0755); err != nil {
		return fmt.Errorf("failed to create effort directory: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state document: %w", err)
	}
	return atomicWriteFile(s.statePath(e.ID), data, 0644)
}

// Load reads and validates the state document for an effort. A missing
// document is a NotFoundError; an unparseable or invariant-violating one
// is a MalformedDataError, since a corrupt canonical document is nothing
// the engine can safely guess at.
func (s *Store) Load(ctx context.Context, effortID string) (*Effort, error) {
	e, _, err := s.LoadWithVersion(ctx, effortID)
	return e, err
}

// LoadWithVersion reads the state document along with its version token
// for a later optimistic save.
func (s *Store) LoadWithVersion(ctx context.Context, effortID string) (*Effort, int64, error) {
	path := s.statePath(effortID)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.NewNotFoundError("effort", effortID)
		}
		return nil, 0, fmt.Errorf("failed to stat state document: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read state document: %w", err)
	}

	var e Effort
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, 0, errors.NewMalformedDataError(path, err)
	}
	if e.Sessions == nil {
		e.Sessions = make(map[SessionID]*SessionRecord)
	}
	if err := e.Validate(); err != nil {
		return nil, 0, errors.NewMalformedDataError(path, err)
	}

	return &e, info.ModTime().UnixNano(), nil
}

// LoadOrInit reads the state document, returning a fresh planning-state
// document when none exists yet. Read-only consumers use this so that an
// effort that was never initialized still presents as "not yet started".
// Malformed documents are still surfaced as errors.
func (s *Store) LoadOrInit(ctx context.Context, effortID string) (*Effort, error) {
	e, err := s.Load(ctx, effortID)
	if err != nil {
		if errors.Is(err, errors.ErrEffortNotFound) {
			return NewEffort(effortID, time.Now().UTC()), nil
		}
		return nil, err
	}
	return e, nil
}

// Save persists the document unconditionally. Mutators that may race
// another writer should use SaveWithVersion instead.
func (s *Store) Save(ctx context.Context, e *Effort) error {
	if err := e.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.EffortDir(e.ID), 0755); err != nil {
		return fmt.Errorf("failed to create effort directory: %w", err)
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state document: %w", err)
	}
	return atomicWriteFile(s.statePath(e.ID), data, 0644)
}

// SaveWithVersion persists the document only if the on-disk version still
// matches the token returned by LoadWithVersion, using modification time
// as the version. Version 0 means the document must not exist yet. It
// returns the new version token on success and ErrStaleState when a
// concurrent writer has moved the document forward.
func (s *Store) SaveWithVersion(ctx context.Context, e *Effort, version int64) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, errors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.statePath(e.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create effort directory: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return 0, fmt.Errorf("failed to stat state document: %w", err)
		}
		if version != 0 {
			return 0, errors.NewNotFoundError("effort", e.ID)
		}
	} else {
		if version == 0 {
			return 0, errors.NewAlreadyExistsError("effort", e.ID)
		}
		if current := info.ModTime().UnixNano(); current != version {
			return 0, errors.ErrStaleState
		}
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal state document: %w", err)
	}
	if err := atomicWriteFile(path, data, 0644); err != nil {
		return 0, err
	}

	newInfo, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read new version: %w", err)
	}
	return newInfo.ModTime().UnixNano(), nil
}

// List returns the ids of all efforts under the root, sorted. A directory
// counts as an effort once it holds a state document.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if s.Exists(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ---------------------------------------------------------------------------
// Atomic writes
// ---------------------------------------------------------------------------

// atomicWriteFile writes data to a file atomically by writing to a
// temporary file in the same directory and renaming it over the target.
// A crash mid-write leaves either the old complete file or the new one,
// never a partial document.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
