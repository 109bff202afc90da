// Package catalog implements the tiered star catalog: per magnitude band one
// existence filter, one tile index and one data blob, queried together.
//
// The catalog is immutable after Open. Query is safe for concurrent use; each
// call only reads shared state and allocates its own scratch. A failed tile
// read degrades to an empty tile with a logged warning so one corrupt tile
// never blocks rendering the rest of the sky.
package catalog

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/starcat/internal/blob"
	"github.com/skyline93/starcat/internal/bloom"
	"github.com/skyline93/starcat/internal/compress"
	"github.com/skyline93/starcat/internal/manifest"
	"github.com/skyline93/starcat/internal/pixel"
	"github.com/skyline93/starcat/internal/starrec"
	"github.com/skyline93/starcat/internal/tileindex"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxInMemoryIndexBytes is the index file size above which a band
// switches from a materialized map to seek-based lookups.
const DefaultMaxInMemoryIndexBytes = 16 * 1024 * 1024

// Options configures Open.
type Options struct {
	// VerifyOnOpen checks every band artifact against the manifest
	// checksums before use.
	VerifyOnOpen bool

	// MaxInMemoryIndexBytes bounds the size of indexes loaded fully into
	// memory. Zero means DefaultMaxInMemoryIndexBytes.
	MaxInMemoryIndexBytes int64
}

// Band is one open magnitude band.
type Band struct {
	Meta   manifest.Band
	Filter *bloom.Filter
	Index  tileindex.Index
	Grid   pixel.Grid

	data  blob.Blob // nil when the data file is missing (degraded band)
	codec compress.Codec
}

// Catalog is a read-only tiered star catalog rooted at a directory.
type Catalog struct {
	root  string
	man   *manifest.Manifest
	bands []*Band
	stats Stats
}

// Open loads the catalog at root. Filter, index or manifest format errors
// are fatal: the catalog cannot start without a trustworthy filter and index
// pair. A missing data blob only degrades its band and is logged.
func Open(root string, opts Options) (*Catalog, error) {
	man, err := manifest.Load(root)
	if err != nil {
		return nil, errors.Wrapf(err, "load manifest of %v", root)
	}

	if opts.MaxInMemoryIndexBytes == 0 {
		opts.MaxInMemoryIndexBytes = DefaultMaxInMemoryIndexBytes
	}

	c := &Catalog{root: root, man: man}

	for i := range man.Bands {
		band, err := openBand(root, man.Bands[i], opts)
		if err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "band %q", man.Bands[i].Name)
		}
		c.bands = append(c.bands, band)
	}

	log.Infof("opened catalog %v: %d bands, epoch %.1f", man.ID, len(c.bands), man.Epoch)
	return c, nil
}

func openBand(root string, meta manifest.Band, opts Options) (*Band, error) {
	if opts.VerifyOnOpen {
		if err := meta.Verify(root); err != nil {
			return nil, err
		}
	}

	filter, err := bloom.Load(meta.FilterPath(root))
	if err != nil {
		return nil, err
	}

	idx, err := openIndex(meta.IndexPath(root), opts.MaxInMemoryIndexBytes)
	if err != nil {
		return nil, err
	}

	grid, err := pixel.NewPlateCarree(meta.Resolution)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	codec, err := compress.ByName(meta.Compression)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	band := &Band{
		Meta:   meta,
		Filter: filter,
		Index:  idx,
		Grid:   grid,
		codec:  codec,
	}

	band.data, err = blob.Open(meta.DataPath(root))
	if err != nil {
		// Degraded band: queries return no stars for it. Recoverable by
		// re-fetching the artifact, so it must not block startup.
		log.Warnf("band %q: data blob unreadable, band degraded: %v", meta.Name, err)
		band.data = nil
	}

	return band, nil
}

func openIndex(path string, maxInMemory int64) (tileindex.Index, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "Stat")
	}

	if fi.Size() > maxInMemory {
		return tileindex.OpenStreamed(path)
	}
	return tileindex.Read(path)
}

// Close releases all band resources.
func (c *Catalog) Close() error {
	var firstErr error
	for _, b := range c.bands {
		if err := b.Index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if b.data != nil {
			if err := b.data.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Epoch returns the catalog reference epoch as a decimal Julian year.
func (c *Catalog) Epoch() float64 { return c.man.Epoch }

// Manifest returns the catalog manifest.
func (c *Catalog) Manifest() *manifest.Manifest { return c.man }

// Bands returns the open bands, brightest first in manifest order.
func (c *Catalog) Bands() []*Band { return c.bands }

// Stats returns a snapshot of the cumulative query counters.
func (c *Catalog) Stats() StatsSnapshot { return c.stats.Snapshot() }

// Query returns proper-motion-corrected stars no fainter than faintestMag in
// the candidate tiles, evaluated at time now. Tile identifiers are
// interpreted at each band's resolution; callers mixing per-band resolutions
// should use ConeQuery instead. Bands are queried concurrently; results are
// merged brightest band first. Per-tile read failures degrade to empty tiles
// and are never returned as errors.
func (c *Catalog) Query(ctx context.Context, tileIDs []uint32, faintestMag float32, now time.Time) []starrec.Star {
	years := starrec.YearsSinceEpoch(c.man.Epoch, now)

	results := make([][]starrec.Star, len(c.bands))
	g, _ := errgroup.WithContext(ctx)

	for i, band := range c.bands {
		if !band.Meta.Overlaps(float64(faintestMag)) {
			continue
		}

		i, band := i, band
		g.Go(func() error {
			results[i] = c.queryBand(band, tileIDs, faintestMag, years)
			return nil
		})
	}

	// Band workers only report into results; no errors propagate.
	_ = g.Wait()

	var stars []starrec.Star
	for _, r := range results {
		stars = append(stars, r...)
	}

	c.stats.StarsReturned.Add(int64(len(stars)))
	return stars
}

func (c *Catalog) queryBand(band *Band, tileIDs []uint32, faintestMag float32, years float64) []starrec.Star {
	var stars []starrec.Star

	for _, tileID := range tileIDs {
		c.stats.TilesConsidered.Add(1)

		if !band.Filter.MightContain(uint64(tileID)) {
			c.stats.FilterRejected.Add(1)
			continue
		}

		// The filter may pass a tile the index does not hold; filter and
		// index are built together, so absence simply means no records.
		entry, ok := band.Index.Lookup(tileID)
		if !ok {
			continue
		}

		tileStars, err := c.readTile(band, tileID, entry)
		if err != nil {
			c.stats.TileErrors.Add(1)
			log.Warnf("band %q tile %d unreadable, skipped: %v", band.Meta.Name, tileID, err)
			continue
		}

		starrec.ApplyProperMotion(tileStars, years)

		for _, s := range tileStars {
			if s.Mag <= faintestMag {
				stars = append(stars, s)
			}
		}
	}

	return stars
}

func (c *Catalog) readTile(band *Band, tileID uint32, entry tileindex.Entry) ([]starrec.Star, error) {
	if band.data == nil {
		return nil, errors.New("data blob unavailable")
	}

	buf := make([]byte, entry.Size)
	if _, err := band.data.ReadAt(buf, int64(entry.Offset)); err != nil {
		return nil, errors.Wrapf(err, "read %d bytes at %d", entry.Size, entry.Offset)
	}
	c.stats.TilesRead.Add(1)
	c.stats.BytesRead.Add(int64(entry.Size))

	if entry.Compressed {
		if band.codec == nil {
			return nil, errors.Errorf("compressed entry in band without codec")
		}
		var err error
		if buf, err = band.codec.Decompress(buf, int(entry.UncompressedSize)); err != nil {
			return nil, err
		}
	}

	cols, err := starrec.DecodeBand(buf)
	if err != nil {
		return nil, err
	}

	stars := make([]starrec.Star, cols.Len())
	for i := range stars {
		ra, dec := band.Grid.Reconstruct(cols.Codes[i], cols.RAOff[i], cols.DecOff[i])
		stars[i] = starrec.Star{
			RADeg:  ra,
			DecDeg: dec,
			Mag:    cols.Mag[i],
			PMRA:   cols.PMRA[i],
			PMDec:  cols.PMDec[i],
		}
	}

	return stars, nil
}

// ConeQuery is a convenience wrapper that derives candidate tiles per band
// from a sky cone. Bands may use different resolutions, so candidates are
// computed against each band's own grid.
func (c *Catalog) ConeQuery(ctx context.Context, raDeg, decDeg, radiusDeg float64, faintestMag float32, now time.Time) []starrec.Star {
	years := starrec.YearsSinceEpoch(c.man.Epoch, now)

	results := make([][]starrec.Star, len(c.bands))
	g, _ := errgroup.WithContext(ctx)

	for i, band := range c.bands {
		if !band.Meta.Overlaps(float64(faintestMag)) {
			continue
		}

		i, band := i, band
		g.Go(func() error {
			tiles := band.Grid.ConeTiles(raDeg, decDeg, radiusDeg)
			results[i] = c.queryBand(band, tiles, faintestMag, years)
			return nil
		})
	}
	_ = g.Wait()

	var stars []starrec.Star
	for _, r := range results {
		stars = append(stars, r...)
	}

	c.stats.StarsReturned.Add(int64(len(stars)))
	return stars
}
