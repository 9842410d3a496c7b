package codec

import (
	"github.com/forensic-go/windecode/internal/bitio"
)

const (
	huffmanSymbolCount = 512
	huffmanTableBytes  = huffmanSymbolCount / 2 // 4 bits per symbol
	huffmanMaxCodeLen  = 15
	huffmanBlockSize   = 64 * 1024
)

// huffmanTable is a canonical Huffman decode table built from the 4-bit code
// lengths that precede every 64 KiB LZXPRESS-Huffman block.
type huffmanTable struct {
	counts           [huffmanMaxCodeLen + 1]int
	firstCode        [huffmanMaxCodeLen + 1]int
	firstSymbolIndex [huffmanMaxCodeLen + 1]int
	symbols          [huffmanSymbolCount]int
}

func buildHuffmanTable(lengths [huffmanSymbolCount]uint8) huffmanTable {
	var t huffmanTable

	for _, l := range lengths {
		if l > 0 {
			t.counts[l]++
		}
	}

	for l := 2; l <= huffmanMaxCodeLen; l++ {
		t.firstCode[l] = (t.firstCode[l-1] + t.counts[l-1]) << 1
		t.firstSymbolIndex[l] = t.firstSymbolIndex[l-1] + t.counts[l-1]
	}

	next := t.firstSymbolIndex
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		t.symbols[next[l]] = sym
		next[l]++
	}
	return t
}

func (t *huffmanTable) decode(r *bitio.Reader) (int, error) {
	code := 0
	length := 0
	for length < huffmanMaxCodeLen {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		code = (code << 1) | int(bit)
		length++
		if t.counts[length] == 0 {
			continue
		}
		diff := code - t.firstCode[length]
		if diff >= 0 && diff < t.counts[length] {
			return t.symbols[t.firstSymbolIndex[length]+diff], nil
		}
	}
	return 0, ErrTruncatedInput
}

// parseHuffmanTable reads the 256-byte, 512-symbol code-length table that
// precedes every block: byte i packs the length of symbol 2i in its low
// nibble and symbol 2i+1 in its high nibble.
func parseHuffmanTable(b []byte) (huffmanTable, error) {
	if len(b) < huffmanTableBytes {
		return huffmanTable{}, ErrTruncatedInput
	}
	var lengths [huffmanSymbolCount]uint8
	for i := 0; i < huffmanTableBytes; i++ {
		lengths[2*i] = b[i] & 0x0f
		lengths[2*i+1] = b[i] >> 4
	}
	return buildHuffmanTable(lengths), nil
}

// DecompressXpressHuffman decodes an LZXPRESS-Huffman (MS-XCA) stream: a
// sequence of independently Huffman-coded 64 KiB blocks, each starting with
// its own 256-byte code-length table. Symbols below 256 are literal bytes;
// symbols at or above 256 encode a back-reference whose length/distance
// extension follows the same nibble-overflow scheme as plain LZXPRESS.
func DecompressXpressHuffman(compressed []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, 0, expectedLen)
	pos := 0

	for len(out) < expectedLen {
		if pos+huffmanTableBytes > len(compressed) {
			break
		}
		table, err := parseHuffmanTable(compressed[pos:])
		if err != nil {
			return nil, err
		}
		pos += huffmanTableBytes

		blockEnd := len(out) + huffmanBlockSize
		if blockEnd > expectedLen {
			blockEnd = expectedLen
		}

		r := bitio.NewReader(compressed[pos:])
		for len(out) < blockEnd {
			sym, err := table.decode(r)
			if err != nil {
				break
			}
			if sym < 256 {
				out = append(out, byte(sym))
				continue
			}

			v := sym - 256
			lengthNibble := v & 0xf
			distanceBits := uint(v >> 4)

			var distance int
			if distanceBits == 0 {
				distance = 1
			} else {
				extra, err := r.ReadBits(distanceBits)
				if err != nil {
					return nil, err
				}
				distance = (1 << distanceBits) + int(extra)
			}

			length := lengthNibble
			if length == 15 {
				b, err := r.ReadBits(8)
				if err != nil {
					return nil, err
				}
				length += int(b)
				if b == 0xff {
					b16, err := r.ReadBits(16)
					if err != nil {
						return nil, err
					}
					length = int(b16)
				}
			}
			length += 3

			if distance > len(out) {
				return nil, ErrTruncatedInput
			}
			for i := 0; i < length && len(out) < blockEnd; i++ {
				out = append(out, out[len(out)-distance])
			}
		}

		// Advance pos past the bytes this block's bit reader actually consumed;
		// LZXPRESS-Huffman block payloads are not independently length-prefixed,
		// so the bit reader's own cursor is authoritative.
		pos += r.BytePos()
	}

	if len(out) > expectedLen {
		return nil, ErrExceededTarget
	}
	return out, nil
}
