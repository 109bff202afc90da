package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{Zstd, LZ4, ""} {
		c, err := ByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, c, name)
	}

	c, err := ByName(None)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = ByName("snappy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCodec))
}

func TestRoundTrip(t *testing.T) {
	// Repetitive 9-byte record-like payload, compresses well.
	src := bytes.Repeat([]byte{0x56, 0x34, 0x12, 0x00, 10, 20, 100, 10, 0xf6}, 500)

	for _, name := range []string{Zstd, LZ4} {
		c, err := ByName(name)
		require.NoError(t, err)

		packed, err := c.Compress(src)
		require.NoError(t, err)
		assert.Less(t, len(packed), len(src), name)

		got, err := c.Decompress(packed, len(src))
		require.NoError(t, err)
		assert.Equal(t, src, got, name)
	}
}

func TestIncompressibleInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, 4096)
	rng.Read(src)

	for _, name := range []string{Zstd, LZ4} {
		c, err := ByName(name)
		require.NoError(t, err)

		packed, err := c.Compress(src)
		require.NoError(t, err)

		got, err := c.Decompress(packed, len(src))
		require.NoError(t, err)
		assert.Equal(t, src, got, name)
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	src := bytes.Repeat([]byte("star"), 100)

	for _, name := range []string{Zstd, LZ4} {
		c, err := ByName(name)
		require.NoError(t, err)

		packed, err := c.Compress(src)
		require.NoError(t, err)

		_, err = c.Decompress(packed, len(src)+1)
		assert.Error(t, err, name)
	}
}

func TestEmptyPayload(t *testing.T) {
	for _, name := range []string{Zstd, LZ4} {
		c, err := ByName(name)
		require.NoError(t, err)

		packed, err := c.Compress(nil)
		require.NoError(t, err)

		got, err := c.Decompress(packed, 0)
		require.NoError(t, err)
		assert.Empty(t, got, name)
	}
}
