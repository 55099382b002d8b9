package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	require.Nil(t, apperrors.Wrapf(nil, "context %d", 1))

	err := apperrors.Wrapf(apperrors.ErrNotFound, "story %s", "S1")
	require.EqualError(t, err, "story S1: not found")
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestValidation(t *testing.T) {
	err := apperrors.Validation("title", "is required")
	require.True(t, stderrors.Is(err, apperrors.ErrValidation))
	require.Contains(t, err.Error(), "title is required")
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", stderrors.New("boom"), nil},
		{"auth", fmt.Errorf("login: %w", apperrors.ErrAuth), apperrors.ErrAuth},
		{"wrapped twice", fmt.Errorf("a: %w", fmt.Errorf("b: %w", apperrors.ErrTransport)), apperrors.ErrTransport},
		{"validation", apperrors.Validation("url", "must be http(s)"), apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apperrors.Kind(tt.err))
		})
	}
}
