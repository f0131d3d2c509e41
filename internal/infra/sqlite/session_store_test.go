package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*SessionStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := Open(path)
	require.NoError(t, err)
	return store, path
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := openTemp(t)
	defer store.Close()
	p := store.ForProfile("p1")

	_, ok, err := p.Get("quizStreak")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Set("quizStreak", []byte("2")))
	require.NoError(t, p.Set("quizStreak", []byte("3")))

	raw, ok, err := p.Get("quizStreak")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", string(raw))

	require.NoError(t, p.Remove("quizStreak"))
	_, ok, err = p.Get("quizStreak")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStoreIsolatesProfiles(t *testing.T) {
	store, _ := openTemp(t)
	defer store.Close()

	require.NoError(t, store.ForProfile("a").Set("guestSessionId", []byte(`"s-a"`)))
	_, ok, err := store.ForProfile("b").Get("guestSessionId")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStoreSurvivesReopen(t *testing.T) {
	store, path := openTemp(t)
	require.NoError(t, store.ForProfile("p1").Set("quizHearts", []byte("4")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	raw, ok, err := reopened.ForProfile("p1").Get("quizHearts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4", string(raw))
}
