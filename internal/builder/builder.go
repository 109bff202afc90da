// Package builder is the offline build step: it partitions a source star
// list into magnitude bands and spatial tiles and writes the immutable
// artifact set the catalog consumes read-only (per band: bloom filter, tile
// index, concatenated data blob; plus the root manifest).
package builder

import (
	"bufio"
	"os"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/starcat/internal/bloom"
	"github.com/skyline93/starcat/internal/compress"
	"github.com/skyline93/starcat/internal/manifest"
	"github.com/skyline93/starcat/internal/pixel"
	"github.com/skyline93/starcat/internal/starrec"
	"github.com/skyline93/starcat/internal/tileindex"
)

// DefaultFPRate is the filter false-positive rate used when a band does not
// set one.
const DefaultFPRate = 0.01

// BandConfig describes one magnitude band to build.
type BandConfig struct {
	Name        string
	MagMin      float64
	MagMax      float64
	Resolution  int    // tiles per degree
	Compression string // compress.None, compress.Zstd or compress.LZ4
	FPRate      float64
}

// Config describes a catalog build.
type Config struct {
	Epoch  float64 // reference epoch, decimal Julian year
	FPRate float64
	Bands  []BandConfig
}

// Build writes a complete catalog under root and returns its manifest.
// Stars outside every band's magnitude range are dropped.
func Build(root string, cfg Config, stars []starrec.Star) (*manifest.Manifest, error) {
	if len(cfg.Bands) == 0 {
		return nil, errors.New("no bands configured")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "MkdirAll")
	}

	man := manifest.New(cfg.Epoch)

	for _, bc := range cfg.Bands {
		band, err := buildBand(root, bc, cfg, stars)
		if err != nil {
			return nil, errors.Wrapf(err, "band %q", bc.Name)
		}
		man.Bands = append(man.Bands, *band)
	}

	if err := man.Validate(); err != nil {
		return nil, err
	}
	if err := man.Save(root); err != nil {
		return nil, err
	}

	log.Infof("built catalog %v with %d bands at %v", man.ID, len(man.Bands), root)
	return man, nil
}

func buildBand(root string, bc BandConfig, cfg Config, stars []starrec.Star) (*manifest.Band, error) {
	grid, err := pixel.NewPlateCarree(bc.Resolution)
	if err != nil {
		return nil, err
	}

	codec, err := compress.ByName(bc.Compression)
	if err != nil {
		return nil, err
	}

	// Group the band's stars by tile.
	tiles := make(map[uint32][]byte)
	count := 0
	for i := range stars {
		s := &stars[i]
		if float64(s.Mag) < bc.MagMin || float64(s.Mag) >= bc.MagMax {
			continue
		}

		code, raOff, decOff := grid.Encode(s.RADeg, s.DecDeg)
		tiles[code] = append(tiles[code], starrec.AppendRecord(nil, code, raOff, decOff, s.Mag, s.PMRA, s.PMDec)...)
		count++
	}

	tileIDs := make([]uint32, 0, len(tiles))
	for id := range tiles {
		tileIDs = append(tileIDs, id)
	}
	sort.Slice(tileIDs, func(i, j int) bool { return tileIDs[i] < tileIDs[j] })

	band := &manifest.Band{
		Name:        bc.Name,
		MagMin:      bc.MagMin,
		MagMax:      bc.MagMax,
		Resolution:  bc.Resolution,
		Compression: bc.Compression,
	}

	if err := os.MkdirAll(band.Dir(root), 0755); err != nil {
		return nil, errors.Wrap(err, "MkdirAll")
	}

	entries, err := writeData(band.DataPath(root), tileIDs, tiles, codec)
	if err != nil {
		return nil, err
	}

	version := uint32(tileindex.Version1)
	if codec != nil {
		version = tileindex.Version2
	}
	if err := tileindex.Write(band.IndexPath(root), version, entries); err != nil {
		return nil, err
	}

	fpRate := bc.FPRate
	if fpRate == 0 {
		fpRate = cfg.FPRate
	}
	if fpRate == 0 {
		fpRate = DefaultFPRate
	}

	filter := bloom.New(uint32(len(tileIDs)), fpRate)
	for _, id := range tileIDs {
		filter.Add(uint64(id))
	}
	if err := filter.Save(band.FilterPath(root)); err != nil {
		return nil, err
	}

	if band.Filter, err = manifest.HashFile(band.FilterPath(root)); err != nil {
		return nil, err
	}
	if band.Index, err = manifest.HashFile(band.IndexPath(root)); err != nil {
		return nil, err
	}
	if band.Data, err = manifest.HashFile(band.DataPath(root)); err != nil {
		return nil, err
	}

	log.Infof("band %q: %d stars in %d of %d tiles", bc.Name, count, len(tileIDs), grid.NumTiles())
	return band, nil
}

// writeData concatenates tile byte runs into the band data blob, compressing
// per tile when a codec is set, and returns the index entries.
func writeData(path string, tileIDs []uint32, tiles map[uint32][]byte, codec compress.Codec) ([]tileindex.FileEntry, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "Create")
	}

	w := bufio.NewWriter(f)
	entries := make([]tileindex.FileEntry, 0, len(tileIDs))
	offset := uint64(0)

	for _, id := range tileIDs {
		raw := tiles[id]
		run := raw
		if codec != nil {
			if run, err = codec.Compress(raw); err != nil {
				_ = f.Close()
				return nil, errors.Wrapf(err, "compress tile %d", id)
			}
		}

		if _, err := w.Write(run); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "write tile %d", id)
		}

		entries = append(entries, tileindex.FileEntry{
			TileID: id,
			Entry: tileindex.Entry{
				Offset:           offset,
				Size:             uint32(len(run)),
				UncompressedSize: uint32(len(raw)),
				Compressed:       codec != nil,
			},
		})
		offset += uint64(len(run))
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "Flush")
	}

	return entries, errors.Wrap(f.Close(), "Close")
}
