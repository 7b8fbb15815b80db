package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSink appends events to a JSONL file, one JSON object per line. The
// file handle stays open for the sink's lifetime; a mutex serializes writes
// so concurrent recorders never interleave lines.
type FileSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *json.Encoder
}

// NewFileSink opens the JSONL log at path, creating the file and its parent
// directory if needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileSink{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the log file path.
func (s *FileSink) Path() string { return s.path }

// Record appends one event as a JSON line.
func (s *FileSink) Record(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("audit log %s is closed", s.path)
	}
	return s.enc.Encode(ev)
}

// Rotate moves the current log aside under a timestamped name and starts a
// fresh file at the original path. Returns the rotated file's path, or ""
// when the log was empty and nothing moved.
func (s *FileSink) Rotate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return "", fmt.Errorf("audit log %s is closed", s.path)
	}

	info, err := s.f.Stat()
	if err == nil && info.Size() == 0 {
		return "", nil
	}

	if err := s.f.Close(); err != nil {
		s.f, s.enc = nil, nil
		return "", fmt.Errorf("failed to close audit log for rotation: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", s.path, time.Now().UTC().Format("20060102T150405Z"))
	renameErr := os.Rename(s.path, rotated)

	// Reopen at the original path even if the rename failed, so the sink
	// keeps accepting events either way.
	f, openErr := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if openErr != nil {
		s.f, s.enc = nil, nil
		return "", fmt.Errorf("failed to reopen audit log after rotation: %w", openErr)
	}
	s.f, s.enc = f, json.NewEncoder(f)

	if renameErr != nil {
		return "", fmt.Errorf("failed to rotate audit log: %w", renameErr)
	}
	return rotated, nil
}

// Close flushes nothing (writes are unbuffered) and releases the handle.
// Close is idempotent.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f, s.enc = nil, nil
	return err
}
