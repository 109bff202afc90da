// Package pixel defines the spherical-pixelization boundary of the storage
// engine. The engine treats tile geometry as a black box: it only needs a way
// to enumerate tiles overlapping a sky cone and to reconstruct exact
// coordinates from a position code plus two sub-pixel offset bytes.
//
// The shipped implementation is an equirectangular (plate-carree) grid. The
// 24-bit position code is row*cols+col at the grid resolution; the offset
// bytes subdivide each cell 256x256.
package pixel

import (
	"math"

	"github.com/pkg/errors"
)

// MaxCodeBits is the number of meaningful bits in a position code.
const MaxCodeBits = 24

// subCells is the per-axis sub-pixel subdivision encoded in one offset byte.
const subCells = 256

// Grid enumerates tiles and converts between sky coordinates and position
// codes at one fixed resolution.
type Grid interface {
	// ConeTiles returns the identifiers of all tiles overlapping the cone
	// centered at (raDeg, decDeg) with the given angular radius.
	ConeTiles(raDeg, decDeg, radiusDeg float64) []uint32

	// Reconstruct converts a position code and sub-pixel offsets back to sky
	// coordinates.
	Reconstruct(code uint32, raOff, decOff uint8) (raDeg, decDeg float64)

	// Encode converts sky coordinates to a position code and sub-pixel
	// offsets.
	Encode(raDeg, decDeg float64) (code uint32, raOff, decOff uint8)

	// NumTiles returns the total tile count of the grid.
	NumTiles() uint32
}

// PlateCarree is a fixed-resolution equirectangular grid. Rows span
// declination -90..+90, columns span right ascension 0..360.
type PlateCarree struct {
	tilesPerDeg int
	rows        int
	cols        int
}

// NewPlateCarree returns a grid with tilesPerDeg tiles per degree on each
// axis. The total tile count must fit in a 24-bit position code, which limits
// the resolution to 16 tiles per degree.
func NewPlateCarree(tilesPerDeg int) (*PlateCarree, error) {
	if tilesPerDeg < 1 {
		return nil, errors.Errorf("invalid resolution %d", tilesPerDeg)
	}

	rows := 180 * tilesPerDeg
	cols := 360 * tilesPerDeg
	if uint64(rows)*uint64(cols) > 1<<MaxCodeBits {
		return nil, errors.Errorf("resolution %d exceeds %d-bit position codes", tilesPerDeg, MaxCodeBits)
	}

	return &PlateCarree{tilesPerDeg: tilesPerDeg, rows: rows, cols: cols}, nil
}

// Resolution returns the grid resolution in tiles per degree.
func (g *PlateCarree) Resolution() int { return g.tilesPerDeg }

// NumTiles returns the total tile count.
func (g *PlateCarree) NumTiles() uint32 { return uint32(g.rows * g.cols) }

// Encode converts sky coordinates to a position code and sub-pixel offsets.
func (g *PlateCarree) Encode(raDeg, decDeg float64) (uint32, uint8, uint8) {
	ra := normalizeRA(raDeg)
	dec := clamp(decDeg, -90, 90)

	x := ra * float64(g.tilesPerDeg)
	y := (dec + 90) * float64(g.tilesPerDeg)

	col := clampInt(int(x), 0, g.cols-1)
	row := clampInt(int(y), 0, g.rows-1)

	raOff := clampInt(int((x-float64(col))*subCells), 0, subCells-1)
	decOff := clampInt(int((y-float64(row))*subCells), 0, subCells-1)

	return uint32(row*g.cols + col), uint8(raOff), uint8(decOff)
}

// Reconstruct returns the center of the sub-cell addressed by code and the
// offset bytes.
func (g *PlateCarree) Reconstruct(code uint32, raOff, decOff uint8) (float64, float64) {
	row := int(code) / g.cols
	col := int(code) % g.cols

	ra := (float64(col) + (float64(raOff)+0.5)/subCells) / float64(g.tilesPerDeg)
	dec := (float64(row)+(float64(decOff)+0.5)/subCells)/float64(g.tilesPerDeg) - 90

	return ra, dec
}

// ConeTiles returns all tiles overlapping the given cone. Near the poles the
// right-ascension span of a cone widens; rows whose parallel lies inside the
// cap contribute all their columns.
func (g *PlateCarree) ConeTiles(raDeg, decDeg, radiusDeg float64) []uint32 {
	if radiusDeg <= 0 {
		return nil
	}

	ra := normalizeRA(raDeg)
	dec := clamp(decDeg, -90, 90)

	minRow := clampInt(int((dec-radiusDeg+90)*float64(g.tilesPerDeg)), 0, g.rows-1)
	maxRow := clampInt(int(math.Ceil((dec+radiusDeg+90)*float64(g.tilesPerDeg))), 0, g.rows-1)

	var tiles []uint32
	for row := minRow; row <= maxRow; row++ {
		// Size the RA span from the row edge farthest from the equator,
		// where a cone's RA footprint is widest. Over-coverage is safe: the
		// existence filter and the exact magnitude cut screen extra tiles.
		rowDecLow := float64(row)/float64(g.tilesPerDeg) - 90
		rowDecHigh := rowDecLow + 1/float64(g.tilesPerDeg)
		edgeDec := rowDecLow
		if math.Abs(rowDecHigh) > math.Abs(edgeDec) {
			edgeDec = rowDecHigh
		}

		cosDec := math.Cos(edgeDec * math.Pi / 180)
		halfWidth := 180.0
		if cosDec > 1e-9 {
			halfWidth = radiusDeg / cosDec
		}

		if halfWidth >= 180 {
			for col := 0; col < g.cols; col++ {
				tiles = append(tiles, uint32(row*g.cols+col))
			}
			continue
		}

		minCol := int(math.Floor((ra - halfWidth) * float64(g.tilesPerDeg)))
		maxCol := int(math.Floor((ra + halfWidth) * float64(g.tilesPerDeg)))
		for c := minCol; c <= maxCol; c++ {
			col := ((c % g.cols) + g.cols) % g.cols
			tiles = append(tiles, uint32(row*g.cols+col))
		}
	}

	return dedup(tiles)
}

func dedup(tiles []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(tiles))
	out := tiles[:0]
	for _, id := range tiles {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
