package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("delete line item: %w", New(ErrPolicyViolation, "state", "only OBSOLETE line items can be deleted"))

	require.ErrorIs(t, err, ErrPolicyViolation)
	assert.NotErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, ErrPolicyViolation, Kind(err))
	assert.Equal(t, "delete line item: policy violation: only OBSOLETE line items can be deleted (state)", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("parsing time \"x\"")
	err := Wrap(ErrFormat, "Start Date", cause)

	require.ErrorIs(t, err, ErrFormat)
	require.ErrorIs(t, err, cause)
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"remote with status", Remote(ErrRemoteConflict, 409, "already exists"), "409\nalready exists"},
		{"remote without status", Wrap(ErrRemoteUnavailable, "", errors.New("dial tcp: refused")), "request failed: dial tcp: refused"},
		{"quantity", New(ErrInvalidQuantity, "quantity", "x"), "You cannot reduce the token amount to a quantity less than or equal to the amount of tokens used."},
		{"incomplete", New(ErrDecodeIncomplete, "", "missing Series Name"), "Rate table is incomplete: missing Series Name"},
		{"format", New(ErrFormat, "rate", "rate must be a number"), "rate must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestKindUnknown(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Kind(errors.New("other")))
}
