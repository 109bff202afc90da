// Package bitset implements a fixed-size packed bit array with a stable
// byte-level layout: bit i lives in byte i/8 under mask 1<<(i%8). The layout
// is part of the catalog's on-disk format and must not change.
package bitset

import (
	"github.com/pkg/errors"
)

// ErrShortBuffer is returned when a serialized bit array is shorter than its
// declared size requires.
var ErrShortBuffer = errors.New("bitset: buffer shorter than declared bit count")

// BitSet is a packed array of bits. The size is fixed at construction.
type BitSet struct {
	numBits uint32
	bytes   []byte
}

// New returns a zero-filled BitSet holding numBits bits.
func New(numBits uint32) *BitSet {
	return &BitSet{
		numBits: numBits,
		bytes:   make([]byte, byteLen(numBits)),
	}
}

// FromBytes reconstructs a BitSet from a serialized byte slice. The slice may
// be longer than required; extra bytes are ignored. It fails with
// ErrShortBuffer if fewer than ceil(numBits/8) bytes are supplied.
func FromBytes(numBits uint32, b []byte) (*BitSet, error) {
	n := byteLen(numBits)
	if uint32(len(b)) < n {
		return nil, errors.Wrapf(ErrShortBuffer, "need %d bytes for %d bits, have %d", n, numBits, len(b))
	}

	bytes := make([]byte, n)
	copy(bytes, b[:n])

	return &BitSet{numBits: numBits, bytes: bytes}, nil
}

// Len returns the number of bits.
func (s *BitSet) Len() uint32 {
	return s.numBits
}

// SetBit sets bit i. Out-of-range indexes are ignored.
func (s *BitSet) SetBit(i uint32) {
	if i >= s.numBits {
		return
	}
	s.bytes[i/8] |= 1 << (i % 8)
}

// GetBit reports whether bit i is set. Out-of-range indexes read as false.
func (s *BitSet) GetBit(i uint32) bool {
	if i >= s.numBits {
		return false
	}
	return s.bytes[i/8]&(1<<(i%8)) != 0
}

// ToBytes returns the packed byte representation. The returned slice is a
// copy; mutating it does not affect the BitSet.
func (s *BitSet) ToBytes() []byte {
	b := make([]byte, len(s.bytes))
	copy(b, s.bytes)
	return b
}

func byteLen(numBits uint32) uint32 {
	return (numBits + 7) / 8
}
