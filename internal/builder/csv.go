package builder

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/skyline93/starcat/internal/starrec"
)

// ReadCSV reads a source star list with columns ra_deg, dec_deg, magnitude,
// pm_ra_mas_per_yr, pm_dec_mas_per_yr. A header row is skipped when the
// first field is not numeric. Proper-motion columns may be omitted.
func ReadCSV(path string) ([]starrec.Star, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	var stars []starrec.Star
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "csv.Read")
		}
		line++

		if len(rec) < 3 {
			return nil, errors.Errorf("line %d: need at least ra,dec,mag", line)
		}

		ra, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, errors.Wrapf(err, "line %d: ra", line)
		}

		dec, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: dec", line)
		}
		mag, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: mag", line)
		}

		s := starrec.Star{RADeg: ra, DecDeg: dec, Mag: float32(mag)}
		if len(rec) >= 5 {
			pmRA, err := strconv.ParseFloat(rec[3], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: pm_ra", line)
			}
			pmDec, err := strconv.ParseFloat(rec[4], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: pm_dec", line)
			}
			s.PMRA = float32(pmRA)
			s.PMDec = float32(pmDec)
		}

		stars = append(stars, s)
	}

	return stars, nil
}
