// Package starrec implements the fixed-width binary star record codec and
// proper-motion epoch propagation.
//
// A record is 9 bytes, little endian:
//
//	offset 0  u32  position code (24 meaningful bits)
//	offset 4  u8   RA sub-pixel offset
//	offset 5  u8   Dec sub-pixel offset
//	offset 6  u8   magnitude code (magnitude * 10)
//	offset 7  i8   proper motion RA code (mas/yr / 50)
//	offset 8  i8   proper motion Dec code (mas/yr / 50)
package starrec

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// RecordSize is the width of one encoded star record in bytes.
const RecordSize = 9

// magScale converts between magnitude and its stored code.
const magScale = 10

// pmScale is the proper-motion quantization step in mas/yr. The representable
// range is ±6350 mas/yr; faster stars are out of range by design.
const pmScale = 50

// ErrBadLength is returned when a tile buffer is not a whole number of
// records.
var ErrBadLength = errors.New("starrec: buffer length not a multiple of record size")

// Columns holds a decoded tile as parallel column slices, one row per star.
type Columns struct {
	Codes  []uint32
	RAOff  []uint8
	DecOff []uint8
	Mag    []float32
	PMRA   []float32 // mas/yr
	PMDec  []float32 // mas/yr
}

// Len returns the number of decoded records.
func (c *Columns) Len() int { return len(c.Codes) }

// DecodeBand decodes a tile's raw bytes into columns. The buffer length must
// be a multiple of RecordSize.
func DecodeBand(buf []byte) (*Columns, error) {
	if len(buf)%RecordSize != 0 {
		return nil, errors.Wrapf(ErrBadLength, "%d bytes", len(buf))
	}

	n := len(buf) / RecordSize
	c := &Columns{
		Codes:  make([]uint32, n),
		RAOff:  make([]uint8, n),
		DecOff: make([]uint8, n),
		Mag:    make([]float32, n),
		PMRA:   make([]float32, n),
		PMDec:  make([]float32, n),
	}

	for i := 0; i < n; i++ {
		rec := buf[i*RecordSize:]
		c.Codes[i] = binary.LittleEndian.Uint32(rec[0:4])
		c.RAOff[i] = rec[4]
		c.DecOff[i] = rec[5]
		c.Mag[i] = float32(rec[6]) / magScale
		c.PMRA[i] = float32(int8(rec[7])) * pmScale
		c.PMDec[i] = float32(int8(rec[8])) * pmScale
	}

	return c, nil
}

// AppendRecord appends one encoded record to buf and returns the extended
// slice. Used by the offline builder.
func AppendRecord(buf []byte, code uint32, raOff, decOff uint8, magnitude float32, pmRA, pmDec float32) []byte {
	var rec [RecordSize]byte

	binary.LittleEndian.PutUint32(rec[0:4], code&(1<<24-1))
	rec[4] = raOff
	rec[5] = decOff
	rec[6] = MagCode(magnitude)
	rec[7] = byte(PMCode(pmRA))
	rec[8] = byte(PMCode(pmDec))

	return append(buf, rec[:]...)
}

// MagCode quantizes a magnitude to its stored code, clamped to 0..25.5 mag.
func MagCode(magnitude float32) uint8 {
	code := math.Round(float64(magnitude) * magScale)
	if code < 0 {
		code = 0
	}
	if code > 255 {
		code = 255
	}
	return uint8(code)
}

// PMCode quantizes a proper-motion rate in mas/yr, clamped to ±6350.
func PMCode(masPerYr float32) int8 {
	code := math.Round(float64(masPerYr) / pmScale)
	if code < -127 {
		code = -127
	}
	if code > 127 {
		code = 127
	}
	return int8(code)
}

// Star is a fully decoded catalog star at some epoch.
type Star struct {
	RADeg  float64
	DecDeg float64
	Mag    float32
	PMRA   float32 // mas/yr, already multiplied by cos(dec)
	PMDec  float32 // mas/yr
}

// ApplyProperMotion shifts star positions by their proper motion over the
// given number of years, in place. The stored RA rate is dec-corrected
// (mu_alpha*), so converting it back to a true RA angular rate divides by
// cos(dec); at the equator this is a no-op. Magnitudes are unchanged.
func ApplyProperMotion(stars []Star, years float64) {
	for i := range stars {
		s := &stars[i]

		deltaDec := float64(s.PMDec) * years / 3600000
		decRad := s.DecDeg * math.Pi / 180

		cosDec := math.Cos(decRad)
		if math.Abs(cosDec) < 1e-9 {
			// Degenerate at the pole; RA is meaningless there.
			s.DecDeg += deltaDec
			continue
		}

		s.RADeg += float64(s.PMRA) * years / 3600000 / cosDec
		s.DecDeg += deltaDec
	}
}
