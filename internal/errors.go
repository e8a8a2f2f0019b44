package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChoice is matched by every InvalidChoiceError
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrChapterLocked is returned when jumping to a chapter the player has not reached
	ErrChapterLocked = errors.New("chapter locked")
	// ErrNoNovel is returned by operations that need a loaded novel
	ErrNoNovel = errors.New("no novel loaded")
)

// LoadError represents a malformed or missing serialized novel or session
type LoadError struct {
	Kind string // "engine", "session"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load error [%s]: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("load error [%s] %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InvalidChoiceError represents a choice against a missing or non-Options
// entry, or an option index out of range
type InvalidChoiceError struct {
	EntryID string
	Index   int
	Reason  string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice [%s #%d]: %s", e.EntryID, e.Index, e.Reason)
}

func (e *InvalidChoiceError) Is(target error) bool {
	return target == ErrInvalidChoice
}

// SyncError represents a failed reconciliation attempt
type SyncError struct {
	Identity string
	Op       string // "fetch", "decode", "push", "clear", "read-local", "write-local"
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error [%s] %s: %v", e.Identity, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing local save files
type StorageError struct {
	Path string
	Op   string // "read", "write", "rename", "remove", "stat"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
