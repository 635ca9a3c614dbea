package highscore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "highscore.txt"))
	best, err := s.Load()
	require.NoError(t, err)
	assert.Zero(t, best)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "highscore.txt")
	require.NoError(t, NewStore(path).Save(42))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "42\n", string(data))

	best, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 42, best)
}

func TestLoadInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "highscore.txt")
	require.NoError(t, os.WriteFile(path, []byte("lots"), 0o644))

	_, err := NewStore(path).Load()
	assert.ErrorContains(t, err, "invalid value")
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "highscore.txt")
	s := NewStore(path)

	best, improved, err := s.Submit(10)
	require.NoError(t, err)
	assert.True(t, improved)
	assert.Equal(t, 10, best)

	best, improved, err = s.Submit(7)
	require.NoError(t, err)
	assert.False(t, improved)
	assert.Equal(t, 10, best)

	best, improved, err = s.Submit(10)
	require.NoError(t, err)
	assert.False(t, improved)
	assert.Equal(t, 10, best)

	reloaded, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded)
}

func TestInMemoryStore(t *testing.T) {
	t.Parallel()

	s := NewStore("")
	best, improved, err := s.Submit(5)
	require.NoError(t, err)
	assert.True(t, improved)
	assert.Equal(t, 5, best)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Error(t, s.Save(-1))
}
