// Package compress wraps zstd for the content repository's blob bodies:
// every stored blob is zstd-compressed on write and transparently
// decompressed on read.
package compress

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compressor encodes and decodes blob bodies with zstd at a fixed level.
// A single Compressor is safe for concurrent use (the underlying encoder
// and decoder both are) and is shared across a ContentManager session.
type Compressor struct {
	level   zstd.EncoderLevel
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a Compressor at the given zstd level (1-22, see
// zstd.EncoderLevelFromZstd).
func New(level int) (*Compressor, error) {
	zlevel := zstd.EncoderLevelFromZstd(level)
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zlevel))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}
	return &Compressor{level: zlevel, encoder: encoder, decoder: decoder}, nil
}

// NewDefault creates a Compressor at zstd level 3, the level every blob
// body in a content repository is written at.
func NewDefault() (*Compressor, error) {
	return New(3)
}

// Compress returns the zstd-framed form of data.
func (c *Compressor) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, nil)
}

// Decompress reverses Compress.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Writer wraps w so that everything written through it lands zstd-encoded
// in w. Used to stream a blob body straight to its temp file without
// buffering the whole compressed form in memory.
func (c *Compressor) Writer(w io.Writer) (*zstd.Encoder, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
}

// Close releases the shared encoder/decoder.
func (c *Compressor) Close() error {
	c.encoder.Close()
	return c.decoder.Close()
}
