// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for malformed input. It is raised before storage is touched.
type ErrValidation struct {
	Field string
	Msg   string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ErrNotFound is returned when an id or name does not resolve to a row.
type ErrNotFound struct {
	Kind Kind
	ID   int64  // set for lookups by id
	Name string // set for lookups by name
}

func (e *ErrNotFound) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %d: not found", e.Kind, e.ID)
}

// ErrDuplicate is returned when a unique name is already taken.
type ErrDuplicate struct {
	Kind Kind
	Name string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("%s %q: already exists", e.Kind, e.Name)
}

// ErrIntegrity is returned when a foreign key does not resolve, or when a
// delete would leave rows pointing at nothing.
type ErrIntegrity struct {
	Op  string
	Msg string
	Err error
}

func (e *ErrIntegrity) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ErrIntegrity) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// Error code constants for logs.
const (
	ErrCodeValidation = "VALIDATION"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeDuplicate  = "DUPLICATE"
	ErrCodeIntegrity  = "INTEGRITY"
	ErrCodeDatabase   = "DATABASE"
	ErrCodeUnknown    = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
// Wrapped errors are unwrapped; nil returns "".
func ErrorCode(err error) string {
	var (
		validation *ErrValidation
		notFound   *ErrNotFound
		duplicate  *ErrDuplicate
		integrity  *ErrIntegrity
		database   *ErrDatabase
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return ErrCodeValidation
	case errors.As(err, &notFound):
		return ErrCodeNotFound
	case errors.As(err, &duplicate):
		return ErrCodeDuplicate
	case errors.As(err, &integrity):
		return ErrCodeIntegrity
	case errors.As(err, &database):
		return ErrCodeDatabase
	}
	return ErrCodeUnknown
}

// Process exit codes.
const (
	ExitOK         = 0
	ExitNotFound   = 1
	ExitValidation = 2
	ExitStorage    = 3
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch ErrorCode(err) {
	case "":
		return ExitOK
	case ErrCodeNotFound:
		return ExitNotFound
	case ErrCodeValidation, ErrCodeDuplicate:
		return ExitValidation
	}
	return ExitStorage
}
