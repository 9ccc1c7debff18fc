package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrValidationRejected marks a well-formed record that failed the sanity checks.
// It never leaves the validator except in debug logs.
var ErrValidationRejected = errors.New("record rejected by validator")

// NetworkError is returned when the feed could not be retrieved.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("feed %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is returned when the body is not a usable CSV table.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode feed: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// RowParseError describes a single dropped row.
type RowParseError struct {
	Line int
	Err  error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }
