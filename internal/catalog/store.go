package catalog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Store holds the active catalog snapshot and swaps it atomically. Routing
// code calls Current once per routing call and works against that snapshot;
// a reload never mutates a snapshot in place.
type Store struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Snapshot]
}

// NewStore wraps an already-compiled snapshot. Stores built this way have no
// source path and cannot Reload.
func NewStore(snap *Snapshot, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	s.current.Store(snap)
	return s
}

// Open loads the catalog at path and returns a reloadable store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := NewStore(snap, logger)
	s.path = path
	return s, nil
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Path returns the catalog source path, or "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Swap installs a new snapshot and returns the previous one.
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// Reload re-reads the source path and swaps in the new snapshot. A document
// that fails validation leaves the previous snapshot serving and returns the
// CatalogError, so one bad edit never takes the router down.
func (s *Store) Reload() error {
	if s.path == "" {
		return &CatalogError{Path: "inline", Issues: []string{"store has no source path to reload from"}}
	}
	snap, err := Load(s.path)
	if err != nil {
		s.logger.Warn("catalog reload rejected, keeping previous snapshot",
			zap.String("path", s.path),
			zap.Error(err))
		return err
	}
	prev := s.Swap(snap)
	s.logger.Info("catalog reloaded",
		zap.String("path", s.path),
		zap.String("version", snap.Version()),
		zap.Int("intents", len(snap.Intents())),
		zap.String("previous_version", prev.Version()))
	return nil
}
