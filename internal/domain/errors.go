package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a stage produced zero usable candidates.
	ErrNotFound = errors.New("not found")
	// ErrSourceUnavailable means an external source failed (network, timeout, bad payload).
	ErrSourceUnavailable = errors.New("source unavailable")
)

// SourceError wraps a failure from a named external source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSourceUnavailable) match any SourceError.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// Unavailable builds a SourceError for source.
func Unavailable(source string, err error) error {
	return &SourceError{Source: source, Err: err}
}

// Recoverable reports whether err should send the pipeline to its next tier.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSourceUnavailable)
}
