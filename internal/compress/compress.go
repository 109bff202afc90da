// Package compress provides the band data codecs. The manifest names one
// codec per band; version-2 tile indexes address compressed byte runs whose
// decoded size the index carries.
package compress

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Codec names accepted in the manifest.
const (
	Zstd = "zstd"
	LZ4  = "lz4"
	None = "none"
)

// ErrUnknownCodec is returned for a codec name the catalog does not support.
var ErrUnknownCodec = errors.New("compress: unknown codec")

// Codec compresses and decompresses tile byte runs. Implementations are safe
// for concurrent use.
type Codec interface {
	Name() string

	// Compress returns src compressed into a fresh buffer.
	Compress(src []byte) ([]byte, error)

	// Decompress decodes src, whose decoded length must equal
	// uncompressedSize.
	Decompress(src []byte, uncompressedSize int) ([]byte, error)
}

// ByName returns the codec registered under name. None returns a nil codec:
// version-1 bands store raw byte runs.
func ByName(name string) (Codec, error) {
	switch name {
	case Zstd, "":
		return newZstdCodec()
	case LZ4:
		return lz4Codec{}, nil
	case None:
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "%q", name)
	}
}

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		// Disable CRC, the catalog manifest carries whole-file checksums.
		zstd.WithEncoderCRC(false),
		// Tiles are small; a 512k window gives full lookbehind.
		zstd.WithWindowSize(512*1024),
	)
	if err != nil {
		return nil, errors.Wrap(err, "zstd.NewWriter")
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(512*1024*1024),
	)
	if err != nil {
		return nil, errors.Wrap(err, "zstd.NewReader")
	}

	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Name() string { return Zstd }

func (c *zstdCodec) Compress(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

func (c *zstdCodec) Decompress(src []byte, uncompressedSize int) ([]byte, error) {
	out, err := c.dec.DecodeAll(src, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, errors.Wrap(err, "zstd.DecodeAll")
	}
	if len(out) != uncompressedSize {
		return nil, errors.Errorf("zstd: decoded %d bytes, index says %d", len(out), uncompressedSize)
	}
	return out, nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return LZ4 }

func (lz4Codec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4.CompressBlock")
	}
	if n == 0 || n >= len(src) {
		// Incompressible input is stored raw. Equal stored and decoded
		// sizes are what marks a raw run, so a compressed block is only
		// kept when it is strictly smaller.
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}
	return dst[:n], nil
}

func (lz4Codec) Decompress(src []byte, uncompressedSize int) ([]byte, error) {
	if len(src) == uncompressedSize {
		// Raw run written by an incompressible Compress call.
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, errors.Wrap(err, "lz4.UncompressBlock")
	}
	if n != uncompressedSize {
		return nil, errors.Errorf("lz4: decoded %d bytes, index says %d", n, uncompressedSize)
	}
	return out, nil
}
