package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	id := NewAt(at)
	require.Len(t, id, 26)

	got, err := Time(id)
	require.NoError(t, err)
	assert.True(t, at.Equal(got), got)
}

func TestNewIsUnique(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, New(), New())
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	require.Error(t, err)
}
