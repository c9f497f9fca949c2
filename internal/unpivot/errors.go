package unpivot

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrMissingTagMapping = errors.New("missing tag mapping")
	ErrMalformedInput    = errors.New("malformed input")
)

// MissingTagMappingError is returned when one or more tag key columns of the
// source table have no entry in the tag id mapping.
type MissingTagMappingError struct {
	// Missing lists the unmapped tag key names in column order.
	Missing []string
}

func (e *MissingTagMappingError) Error() string {
	return fmt.Sprintf("missing tag id mapping for: %s", strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrMissingTagMapping.
func (e *MissingTagMappingError) Is(target error) bool {
	return target == ErrMissingTagMapping
}

// MalformedInputError is returned when the table or the mapping cannot be
// parsed into the expected shape.
type MalformedInputError struct {
	Source string // "table" or "mapping"
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedInput.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func malformedTable(reason string, err error) *MalformedInputError {
	return &MalformedInputError{Source: "table", Reason: reason, Err: err}
}

func malformedMapping(reason string, err error) *MalformedInputError {
	return &MalformedInputError{Source: "mapping", Reason: reason, Err: err}
}
