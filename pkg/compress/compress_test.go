package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	data := []byte(strings.Repeat("steps:\n  - name: scan\n    type: bash\n", 20))

	tests := []struct {
		name string
		algo CompressType
	}{
		{name: "None", algo: CompressTypeNone},
		{name: "Gzip", algo: CompressTypeGzip},
		{name: "Zstd", algo: CompressTypeZstd},
		{name: "Brotli", algo: CompressTypeBr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(data, tt.algo)
			require.NoError(t, err)
			assert.NotEmpty(t, compressed)

			decompressed, err := Decompress(compressed, tt.algo)
			require.NoError(t, err)
			assert.Equal(t, data, decompressed)
		})
	}
}

func TestUnsupported(t *testing.T) {
	_, err := Compress([]byte("x"), 9)
	assert.Error(t, err)
	_, err = Decompress([]byte("x"), 9)
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    CompressType
		wantErr bool
	}{
		{in: "", want: CompressTypeNone},
		{in: "none", want: CompressTypeNone},
		{in: "gzip", want: CompressTypeGzip},
		{in: "zstd", want: CompressTypeZstd},
		{in: "br", want: CompressTypeBr},
		{in: "lz4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompressAbove(t *testing.T) {
	small := []byte("kind: module\n")
	out, typ, err := CompressAbove(small, CompressTypeZstd, 1024)
	require.NoError(t, err)
	assert.Equal(t, CompressTypeNone, typ)
	assert.Equal(t, small, out)

	large := []byte(strings.Repeat("- name: step\n", 200))
	out, typ, err = CompressAbove(large, CompressTypeZstd, 1024)
	require.NoError(t, err)
	assert.Equal(t, CompressTypeZstd, typ)
	assert.Less(t, len(out), len(large))

	back, err := Decompress(out, typ)
	require.NoError(t, err)
	assert.Equal(t, large, back)
}
