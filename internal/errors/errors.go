package errors

import (
	"errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	return as[*ValidationError](err)
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	return as[*NotFoundError](err)
}

// ConflictError reports an operation that is valid in shape but not in the
// current session state, e.g. no bakery selected.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	return as[*ConflictError](err)
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	return as[*ForbiddenError](err)
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	return as[*UnauthorizedError](err)
}

// RemoteError wraps a failed call against the remote document store.
type RemoteError struct {
	Op        string
	Cause     error
	Retryable bool
}

func (e *RemoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("remote %s failed", e.Op)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// NewRemoteError wraps cause. retryable tells the caller whether repeating the
// operation later can succeed.
func NewRemoteError(op string, cause error, retryable bool) *RemoteError {
	return &RemoteError{
		Op:        op,
		Cause:     cause,
		Retryable: retryable,
	}
}

func IsRemoteError(err error) (*RemoteError, bool) {
	return as[*RemoteError](err)
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	return as[*InternalError](err)
}

func as[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
