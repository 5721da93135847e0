package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrTemplateNotFound", err: ErrTemplateNotFound, expected: true},
		{name: "ErrInstanceNotFound", err: ErrInstanceNotFound, expected: true},
		{
			name:     "store error wrapping not found",
			err:      NewStoreError("instance", "delete", "no rows", ErrInstanceNotFound),
			expected: true,
		},
		{name: "duplicate is not not-found", err: ErrDuplicate, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, IsNotFoundError(tc.err))
		})
	}
}

func TestIsUnavailableError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUnavailableError(ErrUnavailable))
	assert.True(t, IsUnavailableError(fmt.Errorf("insert: %w", ErrUnavailable)))
	assert.False(t, IsUnavailableError(ErrNotFound))
	assert.False(t, IsUnavailableError(nil))
	assert.True(t, IsDuplicateError(fmt.Errorf("x: %w", ErrDuplicate)))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewStoreError("template", "create", "insert failed", cause)
	assert.Equal(t, "create operation on template failed: insert failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("template", "update", "no changes", nil)
	assert.Equal(t, "update operation on template failed: no changes", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
