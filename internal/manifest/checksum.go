package manifest

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

// HashFile returns the hex SHA-256 and size of the file at path.
func HashFile(path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "Open")
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "Copy")
	}

	return Artifact{
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   size,
	}, nil
}

// VerifyFile checks the file at path against the recorded artifact.
func VerifyFile(path string, want Artifact) error {
	got, err := HashFile(path)
	if err != nil {
		return err
	}
	if got.Size != want.Size {
		return errors.Errorf("%v: size %d, manifest says %d", path, got.Size, want.Size)
	}
	if got.SHA256 != want.SHA256 {
		return errors.Errorf("%v: checksum mismatch", path)
	}
	return nil
}

// Verify checks every artifact of the band under root.
func (b *Band) Verify(root string) error {
	if err := VerifyFile(b.FilterPath(root), b.Filter); err != nil {
		return errors.Wrapf(err, "band %q filter", b.Name)
	}
	if err := VerifyFile(b.IndexPath(root), b.Index); err != nil {
		return errors.Wrapf(err, "band %q index", b.Name)
	}
	if err := VerifyFile(b.DataPath(root), b.Data); err != nil {
		return errors.Wrapf(err, "band %q data", b.Name)
	}
	return nil
}
