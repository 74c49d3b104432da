package main

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBookNotFound = errors.New("book not found")

	// ErrUnauthenticated is the root of all authentication failures.
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect login or password", ErrUnauthenticated)
	ErrNoAuthToken        = fmt.Errorf("%w: no access token", ErrUnauthenticated)
	ErrInvalidAuthToken   = fmt.Errorf("%w: invalid access token", ErrUnauthenticated)
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// ValidationError reports every field of an input which did not
// satisfy its constraints. It is always the client's fault.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError builds a ValidationError from the given field errors.
func NewValidationError(fes ...FieldError) *ValidationError {
	return &ValidationError{Errors: fes}
}

func (ve *ValidationError) Error() string {
	msgs := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (se *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", se.Op, se.Err)
}

func (se *StorageError) Unwrap() error {
	return se.Err
}

// storageErr wraps err into a StorageError unless it is nil
// or a not found error which must keep its identity.
func storageErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrBookNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
