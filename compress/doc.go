// Package compress provides compression codecs for persisted model files.
//
// Model files are small YAML documents, so the codecs trade streaming
// sophistication for a simple whole-payload API:
//
//	type Codec interface {
//	    Compress(data []byte) ([]byte, error)
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// # Supported Algorithms
//
//   - None: no compression, plain readable YAML (the default)
//   - Gzip: maximum interoperability with standard tooling (.gz)
//   - Zstd: best compression ratio for bulk archival (.zst)
//   - S2: balanced speed and ratio (.s2)
//   - LZ4: fastest decompression, frame format (.lz4)
//
// # Codec Selection
//
// Codecs are normally chosen by file extension rather than by explicit
// configuration:
//
//	codec := compress.ForPath("model.yaml.zst") // ZstdCompressor
//	codec = compress.ForPath("model.yaml")      // NoOpCompressor
//
// The model package's WriteFile/ReadFile route through ForPath, so callers
// pick a codec simply by naming the file. CreateCodec and GetCodec are
// available when the algorithm is selected programmatically.
//
// # Zstd Backends
//
// The Zstd codec builds against the pure-Go klauspost/compress/zstd by
// default. Building with the "gozstd" tag switches to the cgo-backed
// reference library; both emit standard frames and are interchangeable
// on disk.
//
// # Thread Safety
//
// All codecs are stateless values, safe for concurrent use; pooled
// encoder/decoder state is managed internally.
package compress
