package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError for transport status mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	// KindInvalid marks errors caused by the caller's input.
	KindInvalid
	// KindUnavailable marks requests that cannot be served yet, such as an
	// analysis before any dataset is loaded.
	KindUnavailable
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op   string
	Msg  string
	Kind ErrorKind
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an internal AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: KindInternal, Err: err}
}

// InvalidError constructs an AppError blaming the caller's input.
func InvalidError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: KindInvalid, Err: err}
}

// UnavailableError constructs an AppError for a service not ready to answer.
func UnavailableError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: KindUnavailable, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
