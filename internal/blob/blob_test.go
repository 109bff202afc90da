package blob

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	payload := []byte("0123456789abcdef")
	require.NoError(t, os.WriteFile(path, payload, 0644))

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, int64(16), b.Size())

	buf := make([]byte, 4)
	n, err := b.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("4567"), buf)

	n, err = b.ReadAt(buf, 14)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []byte("ef"), buf[:n])

	_, err = b.ReadAt(buf, 100)
	assert.Equal(t, io.EOF, err)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, int64(0), b.Size())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
