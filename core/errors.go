package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse indicates a numeric column held malformed text.
	ErrParse = errors.New("malformed field")
	// ErrMissingColumn indicates the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)

// ParseError describes a column whose text could not be coerced.
type ParseError struct {
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s=%q: %v", e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s=%q", e.Column, e.Value)
}

// Is reports ErrParse so callers can match with errors.Is.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError lists the required columns absent from a header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }
