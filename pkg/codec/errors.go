// Package codec implements the compression primitives shared by the ESE and
// OST/PFF decoders: seven-bit packing, plain LZXPRESS (LZ77), LZXPRESS-Huffman,
// and WOF chunk reassembly. Every entry point takes the compressed bytes plus
// the caller's expected decompressed length and either returns exactly that
// many bytes or fails — callers clamp on under-production, which is not an
// error, but exceeding the target is fatal.
package codec

import "errors"

// ErrExceededTarget is returned when a decoder would emit more bytes than the
// caller-supplied expected length allows.
var ErrExceededTarget = errors.New("codec: decompressed output exceeds expected length")

// ErrTruncatedInput is returned when the compressed buffer runs out before a
// well-formed token or table has been fully read.
var ErrTruncatedInput = errors.New("codec: compressed input truncated")

// ErrUnsupportedVariant is returned for known-but-unimplemented compression
// variants, e.g. WOF's LZX 32K chunk size.
var ErrUnsupportedVariant = errors.New("codec: unsupported compression variant")
