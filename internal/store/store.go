package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// Store is the root of the on-disk record stores. All collections live as
// flat JSON files under one base directory, guarded by a single file lock so
// two runtime instances never interleave read-modify-write cycles.
type Store struct {
	basePath string
	lock     *FileLock
	now      func() time.Time

	tasks     *TaskStore
	reminders *ReminderStore
	memory    *MemoryStore
	settings  *SettingsStore
	calendar  *CalendarStore
}

func New(basePath string, lockCfg *FileLockConfig) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	lock, err := NewFileLock("records", basePath, lockCfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		basePath: basePath,
		lock:     lock,
		now:      time.Now,
	}
	s.initRecords()
	return s, nil
}

// NewUnlocked builds a store without acquiring the runtime lock. Used by
// read-only commands like config inspection and by tests.
func NewUnlocked(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{basePath: basePath, now: time.Now}
	s.initRecords()
	return s, nil
}

// initRecords builds each record store exactly once. Accessors hand out these
// shared instances so every caller serializes on the same mutex; a fresh
// instance per call would let concurrent read-modify-write cycles on the same
// file lose updates.
func (s *Store) initRecords() {
	s.tasks = &TaskStore{store: s, path: s.filePath("tasks.json")}
	s.reminders = &ReminderStore{store: s, path: s.filePath("reminders.json")}
	s.memory = &MemoryStore{store: s, path: s.filePath("memory.json")}
	s.settings = &SettingsStore{store: s, path: s.filePath("settings.json")}
	s.calendar = &CalendarStore{store: s, path: s.filePath("calendar.json")}
}

func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	s.lock.Unlock()
	return nil
}

func (s *Store) BasePath() string { return s.basePath }

func (s *Store) Tasks() *TaskStore { return s.tasks }

func (s *Store) Reminders() *ReminderStore { return s.reminders }

func (s *Store) Memory() *MemoryStore { return s.memory }

func (s *Store) Settings() *SettingsStore { return s.settings }

func (s *Store) filePath(name string) string {
	return filepath.Join(s.basePath, name)
}

// readJSON decodes path into v. A missing file leaves v untouched. An
// unreadable or corrupt file is preserved as a timestamped backup and treated
// as empty so the runtime keeps functioning.
func (s *Store) readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		s.quarantine(path, raw)
		return nil
	}
	return nil
}

func (s *Store) quarantine(path string, raw []byte) {
	backup := fmt.Sprintf("%s.corrupt.%d", path, s.now().Unix())
	if werr := os.WriteFile(backup, raw, 0o644); werr != nil {
		slog.Warn("Failed to back up corrupt store file", "path", path, "error", werr)
		return
	}
	slog.Warn("Store file is corrupted, starting fresh", "path", path, "backup", backup)
}

func (s *Store) writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	var r io.Reader = bytes.NewReader(raw)
	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
