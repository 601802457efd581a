// Package state persists sequence-block records across check
// invocations. Reads and writes are serialized with advisory file
// locks and writes are atomic, so an invocation never observes a torn
// document from an overlapping run.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/versity/scoutam-checks/internal/sequence"
)

const (
	fileMode = 0o640
	dirMode  = 0o750

	lockRetryDelay = 25 * time.Millisecond
)

// Store is the persistence surface the sequences check needs.
type Store interface {
	// Load returns the persisted state. It never fails the caller:
	// missing or corrupt backing data yields an empty state and a
	// logged warning.
	Load(ctx context.Context) sequence.State
	// Save writes the state back. Best-effort: failures are logged,
	// not propagated, since losing one run's duration bookkeeping is
	// preferable to failing a monitoring check.
	Save(ctx context.Context, st sequence.State)
	// Delete removes the backing resource. Idempotent; reports
	// whether anything was removed.
	Delete() (bool, error)
}

// FileStore persists state as JSON on disk, guarded by a sidecar
// advisory lock (shared for reads, exclusive for writes).
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger zerolog.Logger
}

// NewFileStore returns a JSON-backed state store at path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Load reads state from disk under a shared lock.
func (s *FileStore) Load(ctx context.Context) sequence.State {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		s.logger.Debug().Str("path", s.path).Msg("state file missing, starting fresh")
		return sequence.State{}
	}

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("could not acquire shared state lock, starting fresh")
		return sequence.State{}
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("state file unreadable, starting fresh")
		return sequence.State{}
	}

	var st sequence.State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("state file corrupt, starting fresh")
		return sequence.State{}
	}
	if st == nil {
		st = sequence.State{}
	}
	return st
}

// Save writes state to disk atomically under an exclusive lock.
func (s *FileStore) Save(ctx context.Context, st sequence.State) {
	if st == nil {
		st = sequence.State{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		s.logger.Warn().Str("dir", dir).Err(err).Msg("could not create state directory")
		return
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("could not acquire exclusive state lock, skipping save")
		return
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("could not encode state")
		return
	}

	if err := renameio.WriteFile(s.path, data, fileMode); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("could not save state file")
	}
}

// Delete removes the state file. Deleting an already-absent file is
// not an error.
func (s *FileStore) Delete() (bool, error) {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Debug().Str("path", s.path).Msg("removed state file")
	return true, nil
}
