package extload

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotFound is the sentinel matched by every not-found error.
//
// Custom LoadFuncs can report a missing library either by returning an
// error wrapping ErrNotFound or one wrapping fs.ErrNotExist.
var ErrNotFound = errors.New("library not found")

// ErrNoHandle is recorded when a loader reports success for a kind that
// requires a handle but returns a zero Handle.
var ErrNoHandle = errors.New("loader returned no handle")

// NotFoundError reports that nothing loadable exists at Path.
//
// It is the only error class the Loader treats as recoverable: the candidate
// is recorded and the next one is tried.
type NotFoundError struct {
	Path string
	Err  error // Underlying cause, may be nil
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: not found", e.Path)
}

// Unwrap returns the underlying cause.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadError reports a fatal failure while loading a candidate that exists:
// a missing dependency, an ABI mismatch, an undefined symbol or a corrupt
// binary. Remaining candidates are not tried once a LoadError occurs.
type LoadError struct {
	Name string // Logical library name
	Path string // Candidate that failed
	Err  error  // Error returned by the LoadFunc
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s from %s: %v", e.Name, e.Path, e.Err)
}

// Unwrap returns the loader's error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// ResolutionExhaustedError reports that every candidate for Name was
// rejected with a not-found error.
//
// # Format
//
// The message is a single consolidated diagnostic suitable for printing to
// an operator:
//
//	unable to open file: _oss_ops.so, from paths: [/opt/ops/_oss_ops.so /data/ops/_oss_ops.so]
//	caused by: [/opt/ops/_oss_ops.so: not found ... /data/ops/_oss_ops.so: not found ...]
type ResolutionExhaustedError struct {
	Name     string
	Attempts []Attempt
}

func (e *ResolutionExhaustedError) Error() string {
	paths := make([]string, 0, len(e.Attempts))
	causes := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		paths = append(paths, a.Path)
		if a.Err != nil {
			causes = append(causes, a.Err.Error())
		}
	}
	return fmt.Sprintf("unable to open file: %s, from paths: [%s]\ncaused by: [%s]",
		e.Name, strings.Join(paths, " "), strings.Join(causes, " "))
}

// Paths returns the attempted candidate paths in order.
func (e *ResolutionExhaustedError) Paths() []string {
	paths := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		paths = append(paths, a.Path)
	}
	return paths
}

// Is makes an exhausted resolution match ErrNotFound.
func (e *ResolutionExhaustedError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err belongs to the recoverable not-found class.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
