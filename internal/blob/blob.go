// Package blob provides read-only access to band data files. Local files are
// memory mapped when possible; random tile reads then hit the page cache
// without syscall overhead, which matters at interactive frame rates on
// small boards.
package blob

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Blob is a read-only, randomly addressable byte store.
type Blob interface {
	io.ReaderAt
	io.Closer

	Size() int64
}

// Open opens path for random access, preferring a memory mapping and falling
// back to plain file reads when mapping is unavailable.
func Open(path string) (Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "Stat")
	}

	size := fi.Size()
	if size == 0 {
		return &fileBlob{f: f, size: 0}, nil
	}

	data, err := mmap(f, int(size))
	if err != nil {
		// Mapping can fail on exotic filesystems; plain reads still work.
		return &fileBlob{f: f, size: size}, nil
	}

	return &mmapBlob{f: f, data: data}, nil
}

type mmapBlob struct {
	f    *os.File
	data []byte
}

func (b *mmapBlob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}

	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *mmapBlob) Size() int64 { return int64(len(b.data)) }

func (b *mmapBlob) Close() error {
	err := munmap(b.data)
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type fileBlob struct {
	f    *os.File
	size int64
}

func (b *fileBlob) ReadAt(p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) Size() int64 { return b.size }

func (b *fileBlob) Close() error { return b.f.Close() }
