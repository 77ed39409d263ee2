package linesort

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrInputNotFound is matched by errors.Is for every InputNotFoundError
var ErrInputNotFound = errors.New("input not found")

// InputNotFoundError is returned when the input file does not exist.
// It is raised before any temporary state or output is created.
type InputNotFoundError struct {
	// Path is the input path that was requested
	Path string
	// Cause is the error returned by the filesystem
	Cause error
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input file %s does not exist: %v", e.Path, e.Cause)
}

func (e *InputNotFoundError) Unwrap() error {
	return e.Cause
}

// Is reports a match for ErrInputNotFound and fs.ErrNotExist
func (e *InputNotFoundError) Is(target error) bool {
	return target == ErrInputNotFound || target == fs.ErrNotExist
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

// OrderError is returned by CheckFile when a file is not sorted
type OrderError struct {
	// Line is the 1-based line number of Next
	Line int
	// Prev and Next are the two adjacent lines found out of order
	Prev, Next string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("line %d out of order: %q sorts after %q", e.Line, e.Prev, e.Next)
}

// NewDiskError wraps an I/O error with the operation and path it happened on
func NewDiskError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("disk error during %s on %s: %w", operation, path, err)
	}
	return fmt.Errorf("disk error during %s: %w", operation, err)
}
