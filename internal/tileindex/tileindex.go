// Package tileindex maps tile identifiers to byte ranges in a band's data
// blob. Two on-disk schema versions exist:
//
//	header: u32 LE version, u32 LE tile count
//	v1 entry (16 bytes): u32 tile id, u64 offset, u32 size
//	v2 entry (20 bytes): u32 tile id, u64 offset, u32 compressed size,
//	                     u32 uncompressed size
//
// Entries are written sorted by tile id. The index is authoritative: tiles
// are not delimited inside the data blob.
package tileindex

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// Version1 stores uncompressed byte runs.
	Version1 = 1
	// Version2 stores zstd/lz4-compressed byte runs with their decoded size.
	Version2 = 2

	headerSize  = 8
	v1EntrySize = 16
	v2EntrySize = 20
)

// ErrUnsupportedVersion is returned for an unknown index format version.
var ErrUnsupportedVersion = errors.New("tileindex: unsupported index version")

// ErrCorruptIndex is returned when an index file is truncated or its header
// disagrees with the file size.
var ErrCorruptIndex = errors.New("tileindex: corrupt index file")

// Entry describes one tile's byte range within the band data blob. For
// version 1 indexes Size and UncompressedSize are equal and Compressed is
// false.
type Entry struct {
	Offset           uint64
	Size             uint32 // bytes occupied in the data blob
	UncompressedSize uint32 // decoded size
	Compressed       bool
}

// Index resolves tile identifiers to data blob byte ranges. Implementations
// are read-only and safe for concurrent use.
type Index interface {
	// Lookup returns the entry for tileID. The second return is false when
	// the tile has no records in this band.
	Lookup(tileID uint32) (Entry, bool)

	// Version returns the on-disk format version.
	Version() uint32

	// NumTiles returns the number of indexed tiles.
	NumTiles() uint32

	// Close releases any underlying file handle.
	Close() error
}

func entrySize(version uint32) (int, error) {
	switch version {
	case Version1:
		return v1EntrySize, nil
	case Version2:
		return v2EntrySize, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
}

// decodeEntry decodes one raw entry of the given version.
func decodeEntry(version uint32, buf []byte) (uint32, Entry) {
	tileID := binary.LittleEndian.Uint32(buf[0:4])
	e := Entry{
		Offset: binary.LittleEndian.Uint64(buf[4:12]),
		Size:   binary.LittleEndian.Uint32(buf[12:16]),
	}

	if version == Version2 {
		e.UncompressedSize = binary.LittleEndian.Uint32(buf[16:20])
		e.Compressed = true
	} else {
		e.UncompressedSize = e.Size
	}

	return tileID, e
}

func parseHeader(buf []byte, fileSize int64) (version uint32, numTiles uint32, esize int, err error) {
	if len(buf) < headerSize {
		return 0, 0, 0, errors.Wrapf(ErrCorruptIndex, "file too short for header: %d bytes", len(buf))
	}

	version = binary.LittleEndian.Uint32(buf[0:4])
	numTiles = binary.LittleEndian.Uint32(buf[4:8])

	esize, err = entrySize(version)
	if err != nil {
		return 0, 0, 0, err
	}

	want := int64(headerSize) + int64(numTiles)*int64(esize)
	if fileSize < want {
		return 0, 0, 0, errors.Wrapf(ErrCorruptIndex, "need %d bytes for %d tiles, have %d", want, numTiles, fileSize)
	}

	return version, numTiles, esize, nil
}
