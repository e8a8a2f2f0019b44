package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	// EngineFileName is the local engine blob
	EngineFileName = "novel_save.json"
	// SessionFileName is the local session blob
	SessionFileName = "session_save.json"
)

// LocalStore holds the two save blobs in an application-private directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Dir returns the store directory
func (ls *LocalStore) Dir() string {
	return ls.dir
}

// EnsureDir ensures the store directory exists
func (ls *LocalStore) EnsureDir() error {
	if err := os.MkdirAll(ls.dir, 0755); err != nil {
		return &StorageError{Path: ls.dir, Op: "mkdir", Err: err}
	}
	return nil
}

// EnginePath returns the path of the engine blob
func (ls *LocalStore) EnginePath() string {
	return filepath.Join(ls.dir, EngineFileName)
}

// SessionPath returns the path of the session blob
func (ls *LocalStore) SessionPath() string {
	return filepath.Join(ls.dir, SessionFileName)
}

// EngineModTime returns the modification time of the engine blob. ok is
// false when the blob does not exist.
func (ls *LocalStore) EngineModTime() (modTime time.Time, ok bool, err error) {
	info, err := os.Stat(ls.EnginePath())
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, &StorageError{Path: ls.EnginePath(), Op: "stat", Err: err}
	}
	return info.ModTime(), true, nil
}

// ReadEngine returns the engine blob, or nil when there is none
func (ls *LocalStore) ReadEngine() ([]byte, error) {
	return readOptional(ls.EnginePath())
}

// ReadSession returns the session blob, or nil when there is none
func (ls *LocalStore) ReadSession() ([]byte, error) {
	return readOptional(ls.SessionPath())
}

// WriteEngine replaces the engine blob atomically
func (ls *LocalStore) WriteEngine(data []byte) error {
	if err := ls.EnsureDir(); err != nil {
		return err
	}
	return WriteFileAtomic(ls.EnginePath(), data)
}

// WriteSession replaces the session blob atomically
func (ls *LocalStore) WriteSession(data []byte) error {
	if err := ls.EnsureDir(); err != nil {
		return err
	}
	return WriteFileAtomic(ls.SessionPath(), data)
}

// Clear removes both blobs. Missing blobs are not an error.
func (ls *LocalStore) Clear() error {
	for _, path := range []string{ls.EnginePath(), ls.SessionPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &StorageError{Path: path, Op: "remove", Err: err}
		}
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	return data, nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial write.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	tmpPath := tmp.Name()

	cleanup := func(op string, cause error) error {
		_ = tmp.Close()
		if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			LogWarn("Failed to clean up temporary file %s: %v", tmpPath, removeErr)
		}
		return &StorageError{Path: path, Op: op, Err: cause}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup("write", err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup("write", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return cleanup("write", fmt.Errorf("chmod: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return cleanup("rename", err)
	}
	return nil
}
