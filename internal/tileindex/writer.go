package tileindex

import (
	"bufio"
	"encoding/binary"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// FileEntry pairs a tile id with its byte-range descriptor for writing.
type FileEntry struct {
	TileID uint32
	Entry
}

// Write persists entries as an index file of the given version, sorted by
// tile id. Version 1 drops the uncompressed size; callers must not mix
// compressed entries into a version-1 index.
func Write(path string, version uint32, entries []FileEntry) error {
	esize, err := entrySize(version)
	if err != nil {
		return err
	}

	sorted := make([]FileEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TileID < sorted[j].TileID })

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "Create")
	}

	w := bufio.NewWriter(f)

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], version)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(sorted)))
	if _, err := w.Write(header[:]); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write header")
	}

	buf := make([]byte, esize)
	for _, e := range sorted {
		binary.LittleEndian.PutUint32(buf[0:4], e.TileID)
		binary.LittleEndian.PutUint64(buf[4:12], e.Offset)
		binary.LittleEndian.PutUint32(buf[12:16], e.Size)
		if version == Version2 {
			binary.LittleEndian.PutUint32(buf[16:20], e.UncompressedSize)
		}
		if _, err := w.Write(buf); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "write entry")
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "Flush")
	}

	return errors.Wrap(f.Close(), "Close")
}
