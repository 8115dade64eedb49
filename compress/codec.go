package compress

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sqlscore/sqlscore/errs"
)

// Type identifies a compression algorithm for persisted model files.
type Type uint8

const (
	TypeNone Type = 0x1 // TypeNone represents no compression.
	TypeGzip Type = 0x2 // TypeGzip represents gzip compression.
	TypeZstd Type = 0x3 // TypeZstd represents Zstandard compression.
	TypeS2   Type = 0x4 // TypeS2 represents S2 compression.
	TypeLZ4  Type = 0x5 // TypeLZ4 represents LZ4 frame compression.
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeGzip:
		return "Gzip"
	case TypeZstd:
		return "Zstd"
	case TypeS2:
		return "S2"
	case TypeLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a serialized model payload.
//
// Model files are small (a few hundred bytes to a few kilobytes of YAML),
// so all implementations favor simplicity and predictable memory use over
// streaming.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a serialized model payload.
//
// The input must have been produced by the matching Compressor; corrupted
// or mismatched data returns an error.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Stats reports the effect of compressing a model payload.
type Stats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm Type

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64
}

// Ratio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// Savings returns the space savings as a percentage (0-100%).
func (s Stats) Savings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}

// CreateCodec is a factory function that creates a Codec for the specified
// compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Gzip, Zstd, S2, or LZ4)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: ErrUnknownCompression for an unrecognized type
func CreateCodec(compressionType Type) (Codec, error) {
	switch compressionType {
	case TypeNone:
		return NewNoOpCompressor(), nil
	case TypeGzip:
		return NewGzipCompressor(), nil
	case TypeZstd:
		return NewZstdCompressor(), nil
	case TypeS2:
		return NewS2Compressor(), nil
	case TypeLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompression, compressionType)
	}
}

var builtinCodecs = map[Type]Codec{
	TypeNone: NewNoOpCompressor(),
	TypeGzip: NewGzipCompressor(),
	TypeZstd: NewZstdCompressor(),
	TypeS2:   NewS2Compressor(),
	TypeLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType Type) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompression, compressionType)
}

// TypeForPath maps a file extension to its compression type. Unrecognized
// extensions (including none at all) map to TypeNone.
//
// Recognized extensions: .gz/.gzip, .zst/.zstd, .s2, .lz4.
func TypeForPath(path string) Type {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return TypeGzip
	case ".zst", ".zstd":
		return TypeZstd
	case ".s2":
		return TypeS2
	case ".lz4":
		return TypeLZ4
	default:
		return TypeNone
	}
}

// ForPath returns the Codec implied by a file extension, so callers can
// write "model.yaml.zst" and have the right codec picked automatically.
func ForPath(path string) Codec {
	codec, _ := GetCodec(TypeForPath(path))
	return codec
}
