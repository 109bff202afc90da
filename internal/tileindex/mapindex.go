package tileindex

import (
	"os"

	"github.com/pkg/errors"
)

// MapIndex holds every entry in memory. Suited to bright bands whose indexes
// are small.
type MapIndex struct {
	version uint32
	entries map[uint32]Entry
}

// Read loads a complete index file into memory.
func Read(path string) (*MapIndex, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "ReadFile")
	}

	version, numTiles, esize, err := parseHeader(buf, int64(len(buf)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %v", path)
	}

	idx := &MapIndex{
		version: version,
		entries: make(map[uint32]Entry, numTiles),
	}

	for i := uint32(0); i < numTiles; i++ {
		tileID, e := decodeEntry(version, buf[headerSize+int(i)*esize:])
		idx.entries[tileID] = e
	}

	return idx, nil
}

func (idx *MapIndex) Lookup(tileID uint32) (Entry, bool) {
	e, ok := idx.entries[tileID]
	return e, ok
}

func (idx *MapIndex) Version() uint32 { return idx.version }

func (idx *MapIndex) NumTiles() uint32 { return uint32(len(idx.entries)) }

func (idx *MapIndex) Close() error { return nil }
