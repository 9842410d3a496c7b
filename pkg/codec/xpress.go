package codec

import "github.com/forensic-go/windecode/internal/buf"

// DecompressXpress decodes a plain LZXPRESS (MS-XCA LZ77, no Huffman) stream.
//
// The stream is a sequence of 32-bit little-endian control words, consumed
// bit by bit from bit 31 down: a 0 control bit copies the next input byte
// through literally, a 1 bit introduces a back-reference. A back-reference is
// a 16-bit little-endian word whose low 3 bits are a length nibble and whose
// remaining 13 bits plus one are the distance; a length nibble of 7 means a
// following byte is added to the length, and when that byte is 0xFF the
// length is instead taken from the 16-bit word after it. Three is added to
// the final length.
func DecompressXpress(compressed []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, 0, expectedLen)
	pos := 0

	var indicator uint32
	var indicatorBits uint

	for pos < len(compressed) && len(out) < expectedLen {
		if indicatorBits == 0 {
			if pos+4 > len(compressed) {
				break
			}
			indicator = buf.U32LE(compressed[pos:])
			pos += 4
			indicatorBits = 32
		}
		indicatorBits--
		bit := (indicator >> indicatorBits) & 1

		if bit == 0 {
			if pos >= len(compressed) {
				break
			}
			out = append(out, compressed[pos])
			pos++
			continue
		}

		if pos+2 > len(compressed) {
			return nil, ErrTruncatedInput
		}
		word := buf.U16LE(compressed[pos:])
		pos += 2

		distance := int(word>>3) + 1
		length := int(word & 0x7)

		if length == 7 {
			if pos >= len(compressed) {
				return nil, ErrTruncatedInput
			}
			extra := int(compressed[pos])
			pos++
			length += extra
			if extra == 0xff {
				if pos+2 > len(compressed) {
					return nil, ErrTruncatedInput
				}
				length = int(buf.U16LE(compressed[pos:]))
				pos += 2
			}
		}
		length += 3

		if distance > len(out) {
			return nil, ErrTruncatedInput
		}
		for i := 0; i < length && len(out) < expectedLen; i++ {
			out = append(out, out[len(out)-distance])
		}
	}

	if len(out) > expectedLen {
		return nil, ErrExceededTarget
	}
	return out, nil
}
