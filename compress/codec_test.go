package compress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlscore/sqlscore/errs"
)

// modelPayload is a representative serialized model document.
var modelPayload = []byte(`version: 1
intercept: "0.5"
terms:
    depdelay:
        coefficient: "0.9"
        kind: continuous
    seasonSpring:
        coefficient: "-1.2"
        kind: categorical_level
        variable: season
        level: Spring
`)

// getAllCodecs returns all available codec implementations for testing
func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Gzip": NewGzipCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

func TestType_String(t *testing.T) {
	tests := []struct {
		name     string
		cType    Type
		expected string
	}{
		{name: "none", cType: TypeNone, expected: "None"},
		{name: "gzip", cType: TypeGzip, expected: "Gzip"},
		{name: "zstd", cType: TypeZstd, expected: "Zstd"},
		{name: "s2", cType: TypeS2, expected: "S2"},
		{name: "lz4", cType: TypeLZ4, expected: "LZ4"},
		{name: "unknown", cType: Type(0xFF), expected: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cType.String())
		})
	}
}

func TestCreateCodec(t *testing.T) {
	for _, cType := range []Type{TypeNone, TypeGzip, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(cType.String(), func(t *testing.T) {
			codec, err := CreateCodec(cType)
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}

	_, err := CreateCodec(Type(0xFF))
	require.ErrorIs(t, err, errs.ErrUnknownCompression)
}

func TestGetCodec(t *testing.T) {
	codec, err := GetCodec(TypeGzip)
	require.NoError(t, err)
	require.IsType(t, GzipCompressor{}, codec)

	_, err = GetCodec(Type(0))
	require.ErrorIs(t, err, errs.ErrUnknownCompression)
}

func TestTypeForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Type
	}{
		{path: "model.yaml", expected: TypeNone},
		{path: "model", expected: TypeNone},
		{path: "model.yaml.gz", expected: TypeGzip},
		{path: "model.yaml.gzip", expected: TypeGzip},
		{path: "model.yaml.zst", expected: TypeZstd},
		{path: "model.yaml.zstd", expected: TypeZstd},
		{path: "model.yaml.s2", expected: TypeS2},
		{path: "model.yaml.lz4", expected: TypeLZ4},
		{path: "MODEL.YAML.GZ", expected: TypeGzip},
		{path: "/var/models/flight.yaml.zst", expected: TypeZstd},
		{path: "archive.tar", expected: TypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, TypeForPath(tt.path))
		})
	}
}

func TestForPath_RoundTrip(t *testing.T) {
	paths := []string{
		"model.yaml",
		"model.yaml.gz",
		"model.yaml.zst",
		"model.yaml.s2",
		"model.yaml.lz4",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			codec := ForPath(path)
			require.NotNil(t, codec)

			compressed, err := codec.Compress(modelPayload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, modelPayload, decompressed)
		})
	}
}

func TestStats_Calculations(t *testing.T) {
	tests := []struct {
		name            string
		stats           Stats
		expectedRatio   float64
		expectedSavings float64
	}{
		{
			name: "good compression",
			stats: Stats{
				Algorithm:      TypeZstd,
				OriginalSize:   1000,
				CompressedSize: 300,
			},
			expectedRatio:   0.3,
			expectedSavings: 70.0,
		},
		{
			name: "no compression benefit",
			stats: Stats{
				Algorithm:      TypeNone,
				OriginalSize:   500,
				CompressedSize: 500,
			},
			expectedRatio:   1.0,
			expectedSavings: 0.0,
		},
		{
			name: "compression overhead",
			stats: Stats{
				Algorithm:      TypeGzip,
				OriginalSize:   100,
				CompressedSize: 120,
			},
			expectedRatio:   1.2,
			expectedSavings: -20.0,
		},
		{
			name: "zero original size",
			stats: Stats{
				Algorithm:      TypeLZ4,
				OriginalSize:   0,
				CompressedSize: 100,
			},
			expectedRatio:   0.0,
			expectedSavings: 100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expectedRatio, tt.stats.Ratio(), 0.001)
			require.InDelta(t, tt.expectedSavings, tt.stats.Savings(), 0.001)
		})
	}
}

// TestAllCodecs_EmptyData tests that all codecs handle empty data correctly
func TestAllCodecs_EmptyData(t *testing.T) {
	codecs := getAllCodecs()

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			// Test compression of nil data
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed, "Compressing nil should return nil")

			// Test decompression of nil data
			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Nil(t, decompressed, "Decompressing nil should return nil")

			// Test compression of empty slice
			empty := []byte{}
			compressed, err = codec.Compress(empty)
			require.NoError(t, err)

			// Test decompression of empty slice
			decompressed, err = codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed, "Decompressing empty should return empty")
		})
	}
}

// TestAllCodecs_RoundTrip tests compression and decompression round-trip for all codecs
func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "model_document",
			data: modelPayload,
		},
		{
			name: "single_byte",
			data: []byte{0x42},
		},
		{
			name: "binary_data",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC},
		},
		{
			name: "wide_model",
			data: bytes.Repeat(modelPayload, 64), // many-term document
		},
		{
			name: "highly_compressible",
			data: make([]byte, 64*1024), // 64KB of zeros
		},
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					ratio := float64(len(compressed)) / float64(len(tc.data)) * 100
					t.Logf("Original: %d bytes, Compressed: %d bytes, Ratio: %.2f%%",
						len(tc.data), len(compressed), ratio)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed, "Decompressed data must match original")
				})
			}
		})
	}
}

// TestAllCodecs_InvalidData tests that all codecs reject garbage input
func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{
			name: "random_bytes",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "text_as_compressed",
			data: []byte("this is not compressed data"),
		},
		{
			name: "corrupted_header",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
		},
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		t.Run(codecName, func(t *testing.T) {
			// NoOp codec doesn't validate data, so skip invalid data tests
			if codecName == "NoOp" {
				t.Skip("NoOp codec doesn't validate data")
				return
			}

			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.Error(t, err, "Should return error for invalid compressed data")
				})
			}
		})
	}
}

// TestAllCodecs_ConcurrentUsage tests that all codecs are safe for concurrent use
func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 20

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(modelPayload)
			require.NoError(t, err)

			done := make(chan error, numGoroutines*2)

			for i := 0; i < numGoroutines; i++ {
				go func() {
					_, err := codec.Compress(modelPayload)
					done <- err
				}()

				go func() {
					decompressed, err := codec.Decompress(compressed)
					if err != nil {
						done <- err
						return
					}
					if !bytes.Equal(modelPayload, decompressed) {
						done <- fmt.Errorf("decompressed data mismatch")
						return
					}
					done <- nil
				}()
			}

			for range numGoroutines * 2 {
				require.NoError(t, <-done)
			}
		})
	}
}

// TestAllCodecs_InterfaceCompliance verifies that all codecs implement the Codec interface
func TestAllCodecs_InterfaceCompliance(t *testing.T) {
	codecs := getAllCodecs()

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			var _ Codec = codec
			require.NotNil(t, codec)
		})
	}
}
