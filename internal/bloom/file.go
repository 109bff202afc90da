package bloom

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/skyline93/starcat/internal/bitset"
)

// FormatVersion is the on-disk filter format version.
const FormatVersion = 1

// headerSize is the fixed filter file header:
//
//	offset 0  u32 LE  format version (=1)
//	offset 4  u32     capacity
//	offset 8  f64     false-positive rate
//	offset 16 u32     num bits
//	offset 20 u32     num hashes
//	offset 24 ..      bit array, ceil(numBits/8) bytes
const headerSize = 24

// ErrCorruptFilter is returned when a filter file is truncated or its header
// is inconsistent.
var ErrCorruptFilter = errors.New("bloom: corrupt filter file")

// Marshal serializes the filter into the on-disk layout.
func (f *Filter) Marshal() []byte {
	bits := f.bits.ToBytes()
	buf := make([]byte, headerSize+len(bits))

	binary.LittleEndian.PutUint32(buf[0:4], FormatVersion)
	binary.LittleEndian.PutUint32(buf[4:8], f.capacity)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(f.fpRate))
	binary.LittleEndian.PutUint32(buf[16:20], f.numBits)
	binary.LittleEndian.PutUint32(buf[20:24], f.numHashes)
	copy(buf[headerSize:], bits)

	return buf
}

// Unmarshal reconstructs a filter from its on-disk layout.
func Unmarshal(buf []byte) (*Filter, error) {
	if len(buf) < headerSize {
		return nil, errors.Wrapf(ErrCorruptFilter, "file too short for header: %d bytes", len(buf))
	}

	version := binary.LittleEndian.Uint32(buf[0:4])
	if version != FormatVersion {
		return nil, errors.Wrapf(ErrCorruptFilter, "unknown format version %d", version)
	}

	f := &Filter{
		capacity:  binary.LittleEndian.Uint32(buf[4:8]),
		fpRate:    math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		numBits:   binary.LittleEndian.Uint32(buf[16:20]),
		numHashes: binary.LittleEndian.Uint32(buf[20:24]),
	}

	if f.numBits == 0 || f.numHashes == 0 {
		return nil, errors.Wrapf(ErrCorruptFilter, "inconsistent header: %d bits, %d hashes", f.numBits, f.numHashes)
	}

	bits, err := bitset.FromBytes(f.numBits, buf[headerSize:])
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptFilter, "bit array truncated: %v", err)
	}
	f.bits = bits

	return f, nil
}

// Save writes the filter to path.
func (f *Filter) Save(path string) error {
	if err := os.WriteFile(path, f.Marshal(), 0644); err != nil {
		return errors.Wrap(err, "WriteFile")
	}
	return nil
}

// Load reads a filter from path.
func Load(path string) (*Filter, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "ReadFile")
	}

	f, err := Unmarshal(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", path)
	}

	return f, nil
}
