package tileindex

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawIndex(t *testing.T, version uint32, entries []FileEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, Write(path, version, entries))
	return path
}

func TestReadVersion1(t *testing.T) {
	path := writeRawIndex(t, Version1, []FileEntry{
		{TileID: 100, Entry: Entry{Offset: 1000, Size: 500}},
		{TileID: 200, Entry: Entry{Offset: 2000, Size: 600}},
	})

	idx, err := Read(path)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, uint32(Version1), idx.Version())
	assert.Equal(t, uint32(2), idx.NumTiles())

	e, ok := idx.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), e.Offset)
	assert.Equal(t, uint32(500), e.Size)
	assert.Equal(t, uint32(500), e.UncompressedSize)
	assert.False(t, e.Compressed)

	e, ok = idx.Lookup(200)
	require.True(t, ok)
	assert.Equal(t, uint64(2000), e.Offset)
	assert.Equal(t, uint32(600), e.Size)

	_, ok = idx.Lookup(300)
	assert.False(t, ok)
}

func TestReadVersion2(t *testing.T) {
	path := writeRawIndex(t, Version2, []FileEntry{
		{TileID: 7, Entry: Entry{Offset: 64, Size: 120, UncompressedSize: 450}},
	})

	idx, err := Read(path)
	require.NoError(t, err)
	defer idx.Close()

	e, ok := idx.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, uint64(64), e.Offset)
	assert.Equal(t, uint32(120), e.Size)
	assert.Equal(t, uint32(450), e.UncompressedSize)
	assert.True(t, e.Compressed)
}

func TestUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], 99)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	require.NoError(t, os.WriteFile(path, buf[:], 0644))

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	_, err = OpenStreamed(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestTruncatedIndex(t *testing.T) {
	path := writeRawIndex(t, Version1, []FileEntry{
		{TileID: 1, Entry: Entry{Offset: 0, Size: 9}},
		{TileID: 2, Entry: Entry{Offset: 9, Size: 9}},
	})

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf[:len(buf)-4], 0644))

	_, err = Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptIndex))

	_, err = OpenStreamed(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptIndex))
}

func TestTruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, []byte{1, 0, 0}, 0644))

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptIndex))
}

func TestStreamedLookup(t *testing.T) {
	// Deliberately unsorted input; Write sorts by tile id.
	entries := []FileEntry{
		{TileID: 500, Entry: Entry{Offset: 5000, Size: 50, UncompressedSize: 90}},
		{TileID: 3, Entry: Entry{Offset: 0, Size: 10, UncompressedSize: 20}},
		{TileID: 90, Entry: Entry{Offset: 900, Size: 30, UncompressedSize: 60}},
		{TileID: 1000000, Entry: Entry{Offset: 9999, Size: 1, UncompressedSize: 2}},
	}
	path := writeRawIndex(t, Version2, entries)

	idx, err := OpenStreamed(path)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, uint32(4), idx.NumTiles())

	for _, want := range entries {
		e, ok := idx.Lookup(want.TileID)
		require.True(t, ok, "tile %d", want.TileID)
		assert.Equal(t, want.Offset, e.Offset)
		assert.Equal(t, want.Size, e.Size)
		assert.Equal(t, want.UncompressedSize, e.UncompressedSize)
		assert.True(t, e.Compressed)
	}

	for _, missing := range []uint32{0, 4, 91, 999999, 1000001} {
		_, ok := idx.Lookup(missing)
		assert.False(t, ok, "tile %d", missing)
	}
}

func TestStreamedMatchesMap(t *testing.T) {
	var entries []FileEntry
	for i := uint32(0); i < 200; i++ {
		entries = append(entries, FileEntry{
			TileID: i * 17,
			Entry:  Entry{Offset: uint64(i) * 100, Size: 9 * (i%7 + 1)},
		})
	}
	path := writeRawIndex(t, Version1, entries)

	mi, err := Read(path)
	require.NoError(t, err)
	si, err := OpenStreamed(path)
	require.NoError(t, err)
	defer si.Close()

	for i := uint32(0); i < 200*17+5; i++ {
		me, mok := mi.Lookup(i)
		se, sok := si.Lookup(i)
		require.Equal(t, mok, sok, "tile %d", i)
		require.Equal(t, me, se, "tile %d", i)
	}
}

func TestEmptyIndex(t *testing.T) {
	path := writeRawIndex(t, Version1, nil)

	idx, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx.NumTiles())

	_, ok := idx.Lookup(0)
	assert.False(t, ok)

	si, err := OpenStreamed(path)
	require.NoError(t, err)
	defer si.Close()
	_, ok = si.Lookup(0)
	assert.False(t, ok)
}
