package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T) *BadgerBackend {
	t.Helper()
	backend, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestBadgerBackend_RoundTrip(t *testing.T) {
	backend := newTestBadger(t)

	require.NoError(t, backend.Put("s1", "destination", "เกาะช้าง"))
	require.NoError(t, backend.Put("s1", "budget", float64(3000)))
	require.NoError(t, backend.Put("s2", "destination", "ปาย"))

	v, found, err := backend.Get("s1", "destination")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "เกาะช้าง", v)

	state, err := backend.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"destination": "เกาะช้าง", "budget": float64(3000)}, state)
}

func TestBadgerBackend_GetAbsent(t *testing.T) {
	backend := newTestBadger(t)

	_, found, err := backend.Get("s1", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBadgerBackend_ClearScopedToSession(t *testing.T) {
	backend := newTestBadger(t)

	require.NoError(t, backend.Put("s1", "destination", "เลย"))
	require.NoError(t, backend.Put("s2", "destination", "ชุมพร"))

	require.NoError(t, backend.Clear("s1"))

	state, err := backend.Load("s1")
	require.NoError(t, err)
	assert.Empty(t, state)

	v, found, err := backend.Get("s2", "destination")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ชุมพร", v)
}
