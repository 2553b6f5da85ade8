//nolint:revive // exported
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

type CompressType = int8

const (
	CompressTypeNone CompressType = 0
	CompressTypeGzip CompressType = 1
	CompressTypeZstd CompressType = 2
	CompressTypeBr   CompressType = 3
)

var CompressLookupMap = map[string]CompressType{
	"":         CompressTypeNone,
	"none":     CompressTypeNone,
	"identity": CompressTypeNone,
	"gzip":     CompressTypeGzip,
	"zstd":     CompressTypeZstd,
	"br":       CompressTypeBr,
}

// ParseType resolves a configured compression name.
func ParseType(name string) (CompressType, error) {
	t, ok := CompressLookupMap[name]
	if !ok {
		return CompressTypeNone, fmt.Errorf("%s compression not supported", name)
	}
	return t, nil
}

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	brotliWriterPool = sync.Pool{
		New: func() any {
			return brotli.NewWriter(io.Discard)
		},
	}

	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func Compress(data []byte, compressType CompressType) ([]byte, error) {
	var buf bytes.Buffer
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(z)

		z.Reset(&buf)
		if _, err := z.Write(data); err != nil {
			return nil, err
		}
		if err := z.Close(); err != nil {
			return nil, err
		}
	case CompressTypeZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data))), nil
	case CompressTypeBr:
		w := brotliWriterPool.Get().(*brotli.Writer)
		defer brotliWriterPool.Put(w)

		w.Reset(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
	return buf.Bytes(), nil
}

func Decompress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case CompressTypeZstd:
		return zstdDecoder.DecodeAll(data, nil)
	case CompressTypeBr:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
}

// CompressAbove compresses data only when it is at least threshold bytes
// long and compression actually shrinks it. It reports the type that was
// applied.
func CompressAbove(data []byte, compressType CompressType, threshold int) ([]byte, CompressType, error) {
	if compressType == CompressTypeNone || len(data) < threshold {
		return data, CompressTypeNone, nil
	}
	out, err := Compress(data, compressType)
	if err != nil {
		return nil, CompressTypeNone, err
	}
	if len(out) >= len(data) {
		return data, CompressTypeNone, nil
	}
	return out, compressType, nil
}
