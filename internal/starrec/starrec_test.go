package starrec

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSingleRecord(t *testing.T) {
	// code=0x123456, raOff=10, decOff=20, magCode=100, pmRA=10, pmDec=-10.
	buf := []byte{0x56, 0x34, 0x12, 0x00, 10, 20, 100, 10, 0xf6}

	c, err := DecodeBand(buf)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	assert.Equal(t, uint32(0x123456), c.Codes[0])
	assert.Equal(t, uint8(10), c.RAOff[0])
	assert.Equal(t, uint8(20), c.DecOff[0])
	assert.Equal(t, float32(10.0), c.Mag[0])
	assert.Equal(t, float32(500), c.PMRA[0])
	assert.Equal(t, float32(-500), c.PMDec[0])
}

func TestDecodeBadLength(t *testing.T) {
	_, err := DecodeBand(make([]byte, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadLength))
}

func TestDecodeEmpty(t *testing.T) {
	c, err := DecodeBand(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendRecord(buf, 12345, 7, 200, 8.3, 150, -250)
	buf = AppendRecord(buf, 99, 0, 0, 0.1, 0, 0)
	require.Len(t, buf, 2*RecordSize)

	c, err := DecodeBand(buf)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	assert.Equal(t, uint32(12345), c.Codes[0])
	assert.Equal(t, uint8(7), c.RAOff[0])
	assert.Equal(t, uint8(200), c.DecOff[0])
	assert.InDelta(t, 8.3, float64(c.Mag[0]), 0.05)
	assert.Equal(t, float32(150), c.PMRA[0])
	assert.Equal(t, float32(-250), c.PMDec[0])
}

func TestQuantizationClamps(t *testing.T) {
	assert.Equal(t, uint8(0), MagCode(-2))
	assert.Equal(t, uint8(255), MagCode(99))
	assert.Equal(t, int8(127), PMCode(100000))
	assert.Equal(t, int8(-127), PMCode(-100000))
	assert.Equal(t, int8(0), PMCode(0))
	assert.Equal(t, int8(10), PMCode(500))
}

func TestCodeMaskedTo24Bits(t *testing.T) {
	buf := AppendRecord(nil, 0xff123456, 0, 0, 5, 0, 0)

	c, err := DecodeBand(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), c.Codes[0])
}

func TestProperMotionDecAtAnyRA(t *testing.T) {
	// 1000 mas/yr over 1 year is exactly 1/3600 degree in Dec.
	for _, ra := range []float64{0, 90, 271.5} {
		stars := []Star{{RADeg: ra, DecDeg: 10, PMDec: 1000}}
		ApplyProperMotion(stars, 1.0)

		assert.InDelta(t, 10+1.0/3600, stars[0].DecDeg, 1e-12)
		assert.Equal(t, ra, stars[0].RADeg, "RA must be unchanged with pmRA=0")
	}
}

func TestProperMotionRAAtEquator(t *testing.T) {
	stars := []Star{{RADeg: 100, DecDeg: 0, PMRA: 1000}}
	ApplyProperMotion(stars, 1.0)

	assert.InDelta(t, 100+1.0/3600, stars[0].RADeg, 1e-12)
	assert.Equal(t, float64(0), stars[0].DecDeg)
}

func TestProperMotionRACosDecScaling(t *testing.T) {
	stars := []Star{{RADeg: 10, DecDeg: 60, PMRA: 1000}}
	ApplyProperMotion(stars, 1.0)

	// At dec 60 the true RA rate doubles (1/cos 60).
	assert.InDelta(t, 10+2.0/3600, stars[0].RADeg, 1e-9)
}

func TestProperMotionNegativeYears(t *testing.T) {
	stars := []Star{{RADeg: 5, DecDeg: -20, PMRA: 500, PMDec: -500}}
	ApplyProperMotion(stars, -2.0)

	assert.InDelta(t, -20+1000.0/3600000, stars[0].DecDeg, 1e-12)
	assert.Less(t, stars[0].RADeg, 5.0)
}

func TestProperMotionMagnitudeUntouched(t *testing.T) {
	stars := []Star{{RADeg: 1, DecDeg: 1, Mag: 7.7, PMRA: 100, PMDec: 100}}
	ApplyProperMotion(stars, 10)

	assert.Equal(t, float32(7.7), stars[0].Mag)
}

func TestJulianYear(t *testing.T) {
	// J2000.0 is 2000-01-01 12:00 TT; within a minute of UTC for this use.
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 2000.0, JulianYear(j2000), 1e-4)

	oneYearLater := j2000.Add(time.Duration(365.25 * 24 * float64(time.Hour)))
	assert.InDelta(t, 2001.0, JulianYear(oneYearLater), 1e-4)
}

func TestYearsSinceEpoch(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	years := YearsSinceEpoch(2016.0, now)

	assert.InDelta(t, 10.0, years, 0.01)
	assert.True(t, math.Signbit(YearsSinceEpoch(2016.0, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))))
}
