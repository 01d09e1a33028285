package scratch_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	scratch "github.com/goliatone/go-scratch"
	"github.com/stretchr/testify/assert"
)

func TestIsNoCurrentUser(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Sentinel",
			err:      scratch.ErrNoCurrentUser,
			expected: true,
		},
		{
			name:     "Wrapped sentinel",
			err:      fmt.Errorf("lookup: %w", scratch.ErrNoCurrentUser),
			expected: true,
		},
		{
			name:     "Rich error around sentinel",
			err:      goerrors.Wrap(scratch.ErrNoCurrentUser, goerrors.CategoryAuth, "session"),
			expected: true,
		},
		{
			name:     "Plain error with the same message",
			err:      errors.New("No current user"),
			expected: true,
		},
		{
			name:     "Different message",
			err:      errors.New("no current user"),
			expected: false,
		},
		{
			name:     "Different error",
			err:      errors.New("network down"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scratch.IsNoCurrentUser(tt.err))
		})
	}
}
