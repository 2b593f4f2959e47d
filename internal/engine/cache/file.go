package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
)

// FileStoreSchemaVersion is the schema version written to the properties file.
// Files with a different major version are rejected as corrupted.
const FileStoreSchemaVersion = "1.0.0"

// fileStoreData is the serialized form of the properties file.
type fileStoreData struct {
	SchemaVersion string            `json:"schema_version"`
	Properties    map[string]string `json:"properties"`
}

// FileStore is the durable tier: a string map persisted as a single JSON document.
// Every mutation is written through atomically (temp file + rename) under an advisory
// lockfile. TTLs passed to Put are ignored.
type FileStore struct {
	// mu protects properties and serializes saves.
	mu sync.RWMutex

	filePath   string
	properties map[string]string
}

// NewFileStore opens the properties file at filePath, creating nothing until the first write.
// If filePath is empty it defaults to ~/.pecunia/properties.json.
// A file that exists but cannot be decoded returns ErrStoreCorrupted.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		filePath = filepath.Join(homeDir, ".pecunia", "properties.json")
	}

	store := &FileStore{
		filePath:   filePath,
		properties: make(map[string]string),
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// load reads the properties file. A missing file is an empty store.
func (s *FileStore) load() error {
	unlock, lockErr := s.acquireFileLock()
	if lockErr != nil {
		return fmt.Errorf("acquiring file lock: %w", lockErr)
	}
	defer unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache store file: %w", err)
	}

	var doc fileStoreData
	if unmarshalErr := json.Unmarshal(data, &doc); unmarshalErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreCorrupted, unmarshalErr)
	}
	if versionErr := checkSchemaVersion(doc.SchemaVersion); versionErr != nil {
		return versionErr
	}
	if doc.Properties != nil {
		s.properties = doc.Properties
	}
	return nil
}

// checkSchemaVersion accepts any version sharing the current major version.
func checkSchemaVersion(raw string) error {
	current := semver.MustParse(FileStoreSchemaVersion)
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid schema version %q: %w", ErrStoreCorrupted, raw, err)
	}
	if v.Major() != current.Major() {
		return fmt.Errorf("%w: unsupported schema version %s (expected %d.x)",
			ErrStoreCorrupted, v, current.Major())
	}
	return nil
}

// saveLocked writes the properties file atomically. Must be called with mu held.
func (s *FileStore) saveLocked() error {
	unlock, lockErr := s.acquireFileLock()
	if lockErr != nil {
		return fmt.Errorf("acquiring file lock: %w", lockErr)
	}
	defer unlock()

	data, err := json.MarshalIndent(fileStoreData{
		SchemaVersion: FileStoreSchemaVersion,
		Properties:    s.properties,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache store: %w", err)
	}

	// Write atomically via temp file
	tmpPath := s.filePath + ".tmp"
	if writeErr := os.WriteFile(tmpPath, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing cache store temp file: %w", writeErr)
	}
	if renameErr := os.Rename(tmpPath, s.filePath); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming cache store temp file: %w", renameErr)
	}
	return nil
}

// mutate applies fn to a copy of the properties and commits it only if the save succeeds,
// so a failed write leaves the previous state in place.
func (s *FileStore) mutate(fn func(props map[string]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.properties)
	if next == nil {
		next = make(map[string]string)
	}
	if changed := fn(next); !changed {
		return nil
	}

	previous := s.properties
	s.properties = next
	if err := s.saveLocked(); err != nil {
		s.properties = previous
		return err
	}
	return nil
}

// Get returns the stored text or ErrCacheNotFound.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.properties[key]
	if !ok {
		return "", ErrCacheNotFound
	}
	return value, nil
}

// Put stores value durably. ttl is ignored.
func (s *FileStore) Put(_ context.Context, key, value string, _ time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.mutate(func(props map[string]string) bool {
		props[key] = value
		return true
	})
}

// Remove deletes key. Missing keys are not an error.
func (s *FileStore) Remove(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.mutate(func(props map[string]string) bool {
		if _, ok := props[key]; !ok {
			return false
		}
		delete(props, key)
		return true
	})
}

// RemoveAll deletes every property.
func (s *FileStore) RemoveAll(_ context.Context) error {
	return s.mutate(func(props map[string]string) bool {
		clear(props)
		return true
	})
}

// Keys lists keys starting with prefix.
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.properties))
	for key := range s.properties {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Count returns the number of stored properties.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.properties)
}

// FilePath returns the path of the properties file.
func (s *FileStore) FilePath() string {
	return s.filePath
}

// lockFilePath returns the path to the lockfile for cross-process coordination.
func (s *FileStore) lockFilePath() string {
	return s.filePath + ".lock"
}

// acquireFileLock acquires a cross-process advisory lockfile.
// Returns a cleanup function that releases the lock.
func (s *FileStore) acquireFileLock() (func(), error) {
	lockPath := s.lockFilePath()

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	const maxRetries = 10
	const retryDelay = 100 * time.Millisecond
	const staleLockAge = 30 * time.Second

	for range maxRetries {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}

		if removeStaleLock(lockPath, staleLockAge) {
			continue
		}
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("could not acquire lock on %s after retries", lockPath)
}

// removeStaleLock removes a lock older than staleLockAge whose owner is gone.
// Returns true if the lock was removed.
func removeStaleLock(lockPath string, staleLockAge time.Duration) bool {
	info, statErr := os.Stat(lockPath)
	if statErr != nil || time.Since(info.ModTime()) <= staleLockAge {
		return false
	}
	if isLockHeldByLiveProcess(lockPath) {
		return false
	}
	_ = os.Remove(lockPath)
	return true
}

// isLockHeldByLiveProcess reads the PID from a lock file and checks if that process is alive.
func isLockHeldByLiveProcess(lockPath string) bool {
	pidData, readErr := os.ReadFile(lockPath)
	if readErr != nil || len(pidData) == 0 {
		return false
	}
	var pid int
	if _, scanErr := fmt.Sscanf(string(pidData), "%d", &pid); scanErr != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 tests process existence without delivering a signal
	return proc.Signal(syscall.Signal(0)) == nil
}

var _ Store = (*FileStore)(nil)
