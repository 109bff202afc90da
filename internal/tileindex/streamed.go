package tileindex

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// StreamedIndex resolves tiles by binary search over the sorted on-disk entry
// array instead of materializing it. Suited to faint bands whose indexes
// approach full sky coverage.
type StreamedIndex struct {
	f         *os.File
	version   uint32
	numTiles  uint32
	entrySize int
}

// OpenStreamed opens an index file for seek-based lookups. Entries must be
// sorted by tile id, which the builder guarantees.
func OpenStreamed(path string) (*StreamedIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "Stat")
	}

	var header [headerSize]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(ErrCorruptIndex, "read header of %v: %v", path, err)
	}

	version, numTiles, esize, err := parseHeader(header[:], fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "open %v", path)
	}

	return &StreamedIndex{
		f:         f,
		version:   version,
		numTiles:  numTiles,
		entrySize: esize,
	}, nil
}

func (idx *StreamedIndex) entryAt(i int) (uint32, Entry, error) {
	buf := make([]byte, idx.entrySize)
	off := int64(headerSize) + int64(i)*int64(idx.entrySize)
	if _, err := idx.f.ReadAt(buf, off); err != nil {
		return 0, Entry{}, errors.Wrapf(err, "ReadAt entry %d", i)
	}

	tileID, e := decodeEntry(idx.version, buf)
	return tileID, e, nil
}

// tileIDAt reads only the tile id column of entry i.
func (idx *StreamedIndex) tileIDAt(i int) (uint32, error) {
	var buf [4]byte
	off := int64(headerSize) + int64(i)*int64(idx.entrySize)
	if _, err := idx.f.ReadAt(buf[:], off); err != nil {
		return 0, errors.Wrapf(err, "ReadAt entry %d", i)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (idx *StreamedIndex) Lookup(tileID uint32) (Entry, bool) {
	var readErr error
	i := sort.Search(int(idx.numTiles), func(i int) bool {
		if readErr != nil {
			return false
		}
		id, err := idx.tileIDAt(i)
		if err != nil {
			readErr = err
			return false
		}
		return id >= tileID
	})
	if readErr != nil || i >= int(idx.numTiles) {
		return Entry{}, false
	}

	id, e, err := idx.entryAt(i)
	if err != nil || id != tileID {
		return Entry{}, false
	}
	return e, true
}

func (idx *StreamedIndex) Version() uint32 { return idx.version }

func (idx *StreamedIndex) NumTiles() uint32 { return idx.numTiles }

func (idx *StreamedIndex) Close() error { return idx.f.Close() }
