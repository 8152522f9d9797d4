package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// HasField reports whether a field error has already been collected for `field`.
func (err ValidationError) HasField(field string) bool {
	for _, fe := range err.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// NotFoundError is returned when a looked up entity does not exist.
type NotFoundError struct {
	Entity string
}

func NewNotFoundError(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

func (err NotFoundError) Error() string {
	return err.Entity + " not found"
}

// PermissionError rejects an action the actor is not allowed to perform.
// Redirect points to the nearest view the actor may still see.
type PermissionError struct {
	Message  string
	Redirect string
}

func NewPermissionError(msg, redirect string) error {
	return &PermissionError{Message: msg, Redirect: redirect}
}

func (err PermissionError) Error() string {
	return err.Message
}

// StateError is returned when a transition is not allowed from the current state.
// Nothing is mutated when it is returned.
type StateError struct {
	Message string
}

func NewStateError(msg string) error {
	return &StateError{Message: msg}
}

func (err StateError) Error() string {
	return err.Message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// IsNotFound reports whether the cause of err is a *NotFoundError.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}
