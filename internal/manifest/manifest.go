// Package manifest describes a catalog directory: its reference epoch and
// the per-band artifact set (filter, index, data blob) with checksums.
package manifest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/skyline93/starcat/internal/compress"
)

// FileName is the manifest file at the catalog root.
const FileName = "manifest.json"

// Version is the current manifest schema version.
const Version = 1

// Artifact names inside a band directory.
const (
	FilterFile = "filter"
	IndexFile  = "index"
	DataFile   = "data"
)

// Artifact records the integrity of one band file.
type Artifact struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Band describes one magnitude band. A band covers magnitudes in
// [MagMin, MagMax) and stores its tiles at Resolution tiles per degree.
type Band struct {
	Name        string  `json:"name"`
	MagMin      float64 `json:"mag_min"`
	MagMax      float64 `json:"mag_max"`
	Resolution  int     `json:"resolution"`
	Compression string  `json:"compression"`

	Filter Artifact `json:"filter"`
	Index  Artifact `json:"index"`
	Data   Artifact `json:"data"`
}

// Dir returns the band's directory under the catalog root.
func (b *Band) Dir(root string) string { return filepath.Join(root, b.Name) }

// FilterPath returns the band's bloom filter file path.
func (b *Band) FilterPath(root string) string { return filepath.Join(root, b.Name, FilterFile) }

// IndexPath returns the band's tile index file path.
func (b *Band) IndexPath(root string) string { return filepath.Join(root, b.Name, IndexFile) }

// DataPath returns the band's data blob path.
func (b *Band) DataPath(root string) string { return filepath.Join(root, b.Name, DataFile) }

// Overlaps reports whether the band holds stars at or brighter than the
// given faintest magnitude.
func (b *Band) Overlaps(faintestMag float64) bool { return b.MagMin <= faintestMag }

// Manifest is the catalog root document.
type Manifest struct {
	Version uint   `json:"version"`
	ID      string `json:"id"`
	// Epoch is the reference epoch as a decimal Julian year, e.g. 2016.0
	// for Gaia DR3 positions.
	Epoch float64 `json:"epoch"`
	Bands []Band  `json:"bands"`
}

// New returns an empty manifest with a fresh random ID.
func New(epoch float64) *Manifest {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		panic(err)
	}

	return &Manifest{
		Version: Version,
		ID:      hex.EncodeToString(id),
		Epoch:   epoch,
	}
}

// Validate checks structural consistency. Overlapping bands are allowed;
// inconsistent single bands are not.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return errors.Errorf("unsupported manifest version %d", m.Version)
	}

	seen := make(map[string]struct{}, len(m.Bands))
	for i := range m.Bands {
		b := &m.Bands[i]
		if b.Name == "" {
			return errors.Errorf("band %d has no name", i)
		}
		if _, dup := seen[b.Name]; dup {
			return errors.Errorf("duplicate band name %q", b.Name)
		}
		seen[b.Name] = struct{}{}

		if b.MagMin >= b.MagMax {
			return errors.Errorf("band %q: empty magnitude range [%v, %v)", b.Name, b.MagMin, b.MagMax)
		}
		if b.Resolution < 1 {
			return errors.Errorf("band %q: invalid resolution %d", b.Name, b.Resolution)
		}
		if _, err := compress.ByName(b.Compression); err != nil {
			return errors.Wrapf(err, "band %q", b.Name)
		}
	}

	return nil
}

// Save writes the manifest to the catalog root.
func (m *Manifest) Save(root string) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(root, FileName), buf, 0644), "WriteFile")
}

// Load reads and validates the manifest from the catalog root.
func Load(root string) (*Manifest, error) {
	buf, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "ReadFile")
	}

	var m Manifest
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, errors.Wrap(err, "json.Unmarshal")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}
