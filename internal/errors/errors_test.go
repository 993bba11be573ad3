package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("price must be non-negative"), func(err error) bool { _, ok := IsValidationError(err); return ok }},
		{"not found", NewNotFoundError("bakery not found"), func(err error) bool { _, ok := IsNotFoundError(err); return ok }},
		{"conflict", NewConflictError("no bakery selected"), func(err error) bool { _, ok := IsConflictError(err); return ok }},
		{"forbidden", NewForbiddenError("admin only"), func(err error) bool { _, ok := IsForbiddenError(err); return ok }},
		{"unauthorized", NewUnauthorizedError("invalid credentials"), func(err error) bool { _, ok := IsUnauthorizedError(err); return ok }},
		{"remote", NewRemoteError("update orders", errors.New("timeout"), true), func(err error) bool { _, ok := IsRemoteError(err); return ok }},
		{"internal", NewInternalError("loading history", errors.New("timeout")), func(err error) bool { _, ok := IsInternalError(err); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(errors.New("plain")))

			for _, other := range tests {
				if other.name != tt.name {
					assert.False(t, other.check(tt.err), "%s classified as %s", tt.name, other.name)
				}
			}
		})
	}
}

func TestValidationError_Details(t *testing.T) {
	err := NewValidationError("invalid menu item",
		ValidationDetail{Field: "name", Message: "name is required"},
		ValidationDetail{Field: "price", Message: "price must be non-negative"},
	)

	assert.Equal(t, "invalid menu item", err.Error())
	assert.Len(t, err.Details, 2)
	assert.Equal(t, "price", err.Details[1].Field)
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewRemoteError("add menuItems", cause, true)

	assert.True(t, err.Retryable)
	assert.Equal(t, "remote add menuItems failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	re, ok := IsRemoteError(fmt.Errorf("wrapped: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "add menuItems", re.Op)

	assert.Equal(t, "remote get bakeries failed", (&RemoteError{Op: "get bakeries"}).Error())
}

func TestInternalError(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("loading history", cause)

	assert.Equal(t, "loading history: database error", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewInternalError("no cause", nil)
	assert.Equal(t, "no cause", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
