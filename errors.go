package exitprobe

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include isolation failures, configuration errors, unwritable reports.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError reports failed tests in strict mode (exit code 1)
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// SelectionError is returned before any execution when the selection names
// an unknown suite or test, or is malformed (exit code 3)
type SelectionError struct {
	Err error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection error: %v", e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// NewSelectionError creates a new SelectionError
func NewSelectionError(err error) *SelectionError {
	return &SelectionError{Err: err}
}

// IsSelectionError checks if the error is or wraps a SelectionError
func IsSelectionError(err error) bool {
	var selErr *SelectionError
	return err != nil && errors.As(err, &selErr)
}

// AbortedError reports a run interrupted before completion (exit code 4).
// The report has still been written.
type AbortedError struct {
	RunID string
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("run %s aborted", e.RunID)
}

// IsAbortedError checks if the error is or wraps an AbortedError
func IsAbortedError(err error) bool {
	var abortErr *AbortedError
	return err != nil && errors.As(err, &abortErr)
}
