package store

import (
	"errors"
	"fmt"
)

// ErrIO indicates a source could not be read or a destination written.
var ErrIO = errors.New("i/o failure")

// IOError records the operation and path of a failed read or write.
type IOError struct {
	Op   string // "open", "read", "create", "write", "export"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Is reports ErrIO so callers can match with errors.Is.
func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }

// RowError ties a rejected row to its 1-based line number in the source.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
