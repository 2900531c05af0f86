package domain

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress is returned when a sync pass is requested while
// another one is still running against the same store.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrNotFound is returned by repository lookups for unknown prompt ids.
var ErrNotFound = errors.New("prompt not found")

// NetworkError wraps a failed page fetch. Fetch failures are fatal to
// the current sync pass.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// ParseError marks a single post or page fragment that could not be
// structurally extracted. Parse errors are absorbed per item and never
// fail a pass.
type ParseError struct {
	PostID string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for post %q: %v", e.PostID, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ClassificationError marks a failed classifier call. Callers degrade
// to default labels instead of propagating it.
type ClassificationError struct {
	Cause error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification error: %v", e.Cause)
}

func (e *ClassificationError) Unwrap() error { return e.Cause }

// RepositoryError wraps a failed store write. Repository errors are
// fatal to the current pass.
type RepositoryError struct {
	Op    string
	Cause error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s failed: %v", e.Op, e.Cause)
}

func (e *RepositoryError) Unwrap() error { return e.Cause }
