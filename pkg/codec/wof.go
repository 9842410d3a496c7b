package codec

import (
	"github.com/forensic-go/windecode/internal/buf"
)

// WofChunkSize maps a WOF reparse-point compression-method value to its
// chunk size. Method 1 (LZX 32K) is a distinct, unsupported algorithm.
func WofChunkSize(compressionMethod uint32) (size int, supported bool) {
	switch compressionMethod {
	case 0:
		return 4096, true
	case 1:
		return 32768, false
	case 2:
		return 8192, true
	case 3:
		return 16384, true
	default:
		return 0, false
	}
}

// DecompressWof reassembles a WofCompressedData stream into the original
// file contents. The stream is a chunk-offset table followed by one
// independently LZXPRESS-Huffman-compressed chunk per `chunkSize` bytes of
// uncompressed output.
//
// The offset table holds one entry per chunk boundary *between* chunks, not
// one per chunk: a file that fits in a single chunk has an empty table (the
// whole stream after the table is that one chunk), and an N-chunk file has
// N-1 entries. Offsets are stored relative to the byte immediately following
// the table. A chunk whose compressed length equals its uncompressed length
// (chunkSize, or the remainder for the final chunk) is stored verbatim (not
// compressed).
func DecompressWof(compressed []byte, uncompressedLen int, compressionMethod uint32) ([]byte, error) {
	chunkSize, supported := WofChunkSize(compressionMethod)
	if !supported {
		// LZX 32K (method 1) and unknown methods: surface the compressed
		// bytes unchanged so the caller still has something to preserve.
		return compressed, ErrUnsupportedVariant
	}
	if uncompressedLen == 0 {
		return nil, nil
	}

	numChunks := (uncompressedLen + chunkSize - 1) / chunkSize
	tableEntries := numChunks - 1

	entryWidth := 4
	if uncompressedLen >= (1 << 32) {
		entryWidth = 8
	}

	tableBytes := tableEntries * entryWidth
	if tableBytes > len(compressed) {
		return nil, ErrTruncatedInput
	}

	offsets := make([]int, tableEntries)
	for i := 0; i < tableEntries; i++ {
		entry, ok := buf.Slice(compressed, i*entryWidth, entryWidth)
		if !ok {
			return nil, ErrTruncatedInput
		}
		if entryWidth == 4 {
			offsets[i] = int(buf.U32LE(entry))
		} else {
			offsets[i] = int(buf.U64LE(entry))
		}
	}

	payload := compressed[tableBytes:]
	out := make([]byte, 0, uncompressedLen)

	start := 0
	for i := 0; i < numChunks; i++ {
		var end int
		if i < tableEntries {
			end = offsets[i]
		} else {
			end = len(payload)
		}
		if end < start || end > len(payload) {
			return nil, ErrTruncatedInput
		}

		remaining := uncompressedLen - len(out)
		chunkUncompressedLen := chunkSize
		if remaining < chunkSize {
			chunkUncompressedLen = remaining
		}

		chunk := payload[start:end]
		if len(chunk) == chunkUncompressedLen {
			// Stored verbatim: the compressed length equals the target length.
			out = append(out, chunk...)
		} else {
			dec, err := DecompressXpressHuffman(chunk, chunkUncompressedLen)
			if err != nil {
				return nil, err
			}
			out = append(out, dec...)
		}
		start = end
	}

	if len(out) > uncompressedLen {
		return nil, ErrExceededTarget
	}
	return out, nil
}
