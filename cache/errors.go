// Package cache persists the most recent raw deploy response as a
// whole-file overwrite at a configured path.
//
// This file defines sentinel errors and an error wrapper for classifying
// persistence failures, enabling errors.Is/errors.As assertions rather
// than string matching.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Sentinel errors for persistence failure classification.
var (
	// ErrPermissionDenied indicates a permission failure (EACCES).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the target path does not exist (ENOENT).
	ErrNotFound = errors.New("not found")

	// ErrDiskFull indicates storage is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")
)

// CacheError wraps an underlying error with persistence classification.
// The original error stays in the chain for errors.As inspection.
type CacheError struct {
	// Kind is the sentinel for classification, nil when unclassified.
	Kind error
	// Op is the operation that failed ("write", "read").
	Op string
	// Path is the cache path involved.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *CacheError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for chain traversal.
func (e *CacheError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *CacheError) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

// wrapError classifies and wraps a persistence error. Returns nil when
// err is nil.
func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &CacheError{Kind: classify(err), Op: op, Path: path, Err: err}
}

// classify maps an OS-level error to its sentinel, or nil when it has
// no classification.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case os.IsNotExist(err):
		return ErrNotFound
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	default:
		return nil
	}
}
