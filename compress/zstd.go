package compress

// ZstdCompressor provides Zstandard compression for model files.
//
// Zstd gives the best compression ratio of the built-in codecs, making it
// the right choice when model files are archived in bulk or shipped over
// constrained links.
//
// Two implementations are available, selected at build time:
//   - Default: pure-Go github.com/klauspost/compress/zstd
//   - With the "gozstd" build tag: cgo-backed github.com/valyala/gozstd,
//     which binds the reference C library
//
// Both produce standard Zstandard frames and decompress each other's output.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd codec instance
//
// Example:
//
//	codec := NewZstdCompressor()
//	compressed, err := codec.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
