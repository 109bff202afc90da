//go:build windows

package blob

import (
	"os"

	"github.com/pkg/errors"
)

// Plain file reads are used on windows; Open falls back when mmap errors.
func mmap(_ *os.File, _ int) ([]byte, error) {
	return nil, errors.New("mmap not supported")
}

func munmap(_ []byte) error { return nil }
