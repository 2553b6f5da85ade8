//nolint:revive // exported
package mwcompress

import (
	"connectrpc.com/connect"
	"github.com/klauspost/compress/zstd"
)

const Name = "zstd"

var _ connect.Decompressor = zstdDecompressor{}

type zstdDecompressor struct {
	*zstd.Decoder
}

// Close keeps the decoder usable; connect pools decompressors and calls
// Reset before reuse.
func (d zstdDecompressor) Close() error {
	return nil
}

func NewCompress() connect.Compressor {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func NewDecompress() connect.Decompressor {
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return zstdDecompressor{Decoder: dec}
}

// WithZstd registers zstd compression for a handler or client.
func WithZstd() connect.Option {
	return connect.WithCompression(Name, NewDecompress, NewCompress)
}
