package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaSaveRejectsDeclaredOversize(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = store.Save("sub1", "big.pdf", 9, strings.NewReader("123456789"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMediaSaveRejectsOversizeStream(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 8)
	require.NoError(t, err)

	// Declared size lies; the cap is enforced on the bytes written.
	_, err = store.Save("sub1", "big.pdf", 4, strings.NewReader("123456789"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMediaSaveRoundtrip(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 64)
	require.NoError(t, err)

	stored, err := store.Save("sub1", "notes.txt", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Size)
	assert.True(t, strings.HasPrefix(stored.URL, "/media/sub1/"))

	file, err := store.Open(stored.Path)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 8)
	n, _ := file.Read(buf)
	assert.Equal(t, "hello", string(buf[:n]))
}
