// Package bloom implements the per-band tile existence filter: a classic
// Bloom filter over tile identifiers, sized from an expected key count and a
// target false-positive rate.
//
// False positive probability is (1 - e^(-kn/m))^k for k hash functions, m bits
// and n inserted keys. There are no false negatives. One filter is built
// offline per magnitude band and shipped read-only with the catalog.
package bloom

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/skyline93/starcat/internal/bitset"
)

// hashSalt decorrelates the second hash from the first (SplitMix64 constant).
const hashSalt = 0x9e3779b97f4a7c15

// Filter answers "might this tile contain a star in this band?".
type Filter struct {
	capacity  uint32
	fpRate    float64
	numBits   uint32
	numHashes uint32
	bits      *bitset.BitSet

	// added counts insertions since construction. It is not persisted; a
	// loaded filter assumes the offline build inserted close to capacity.
	added uint64
}

// New returns an empty filter sized for capacity keys at the given
// false-positive rate. A capacity of zero yields a degenerate filter that
// contains nothing.
func New(capacity uint32, fpRate float64) *Filter {
	numBits := uint32(1)
	numHashes := uint32(1)

	if capacity > 0 {
		m := math.Ceil(-(float64(capacity) * math.Log(fpRate)) / (math.Ln2 * math.Ln2))
		if m > 1 {
			numBits = uint32(m)
		}

		k := math.Round(float64(numBits) / float64(capacity) * math.Ln2)
		if k > 1 {
			numHashes = uint32(k)
		}
	}

	return &Filter{
		capacity:  capacity,
		fpRate:    fpRate,
		numBits:   numBits,
		numHashes: numHashes,
		bits:      bitset.New(numBits),
	}
}

// Add inserts key into the filter. Only the offline build step mutates a
// filter; at query time filters are read-only.
func (f *Filter) Add(key uint64) {
	h1, h2 := hashPair(key)
	for i := uint64(0); i < uint64(f.numHashes); i++ {
		f.bits.SetBit(uint32((h1 + i*h2) % uint64(f.numBits)))
	}
	f.added++
}

// MightContain reports whether key may have been inserted. A false result is
// definitive; a true result is wrong with probability about the configured
// false-positive rate.
func (f *Filter) MightContain(key uint64) bool {
	h1, h2 := hashPair(key)
	for i := uint64(0); i < uint64(f.numHashes); i++ {
		if !f.bits.GetBit(uint32((h1 + i*h2) % uint64(f.numBits))) {
			return false
		}
	}
	return true
}

// ActualFPRate estimates the current false-positive probability. The second
// return is false when no valid estimate exists (capacity zero). The estimate
// uses the larger of the configured capacity and the observed insertion
// count, so it only worsens once a filter is filled past its design point.
func (f *Filter) ActualFPRate() (float64, bool) {
	if f.capacity == 0 {
		return 0, false
	}

	n := uint64(f.capacity)
	if f.added > n {
		n = f.added
	}

	k := float64(f.numHashes)
	rate := math.Pow(1-math.Exp(-k*float64(n)/float64(f.numBits)), k)
	return rate, true
}

// Capacity returns the expected key count the filter was sized for.
func (f *Filter) Capacity() uint32 { return f.capacity }

// FPRate returns the configured false-positive rate.
func (f *Filter) FPRate() float64 { return f.fpRate }

// NumBits returns the size of the bit array.
func (f *Filter) NumBits() uint32 { return f.numBits }

// NumHashes returns the number of hash functions, always at least one.
func (f *Filter) NumHashes() uint32 { return f.numHashes }

// hashPair derives two independent 64-bit hashes from key. Bit positions are
// (h1 + i*h2) mod numBits, the Kirsch-Mitzenmacher double hashing scheme.
func hashPair(key uint64) (uint64, uint64) {
	var b [8]byte

	binary.LittleEndian.PutUint64(b[:], key)
	h1 := xxhash.Sum64(b[:])

	binary.LittleEndian.PutUint64(b[:], key^hashSalt)
	h2 := xxhash.Sum64(b[:])

	return h1, h2
}
