package codec

// DecompressSevenBit reconstructs the ASCII/Latin-1 string packed into seven
// bits per byte: the encoder took an N-byte ASCII string, discarded the top
// bit of every byte, and repacked the remaining 7-bit values back-to-back, so
// every 7 payload bytes here yield 8 decoded bytes. The first input byte is
// the compression-scheme identifier the engine writes ahead of the packed
// data; it carries no payload bits. The accumulator slides a byte at a time;
// every 7th byte flushes an extra output byte from the bits left over.
func DecompressSevenBit(compressed []byte, expectedLen int) ([]byte, error) {
	const (
		bitsPerByte = 7
		mask        = 0x7f
	)

	if len(compressed) == 0 {
		return nil, nil
	}
	payload := compressed[1:]

	out := make([]byte, 0, len(payload)+len(payload)/bitsPerByte+1)
	var acc uint16
	var index uint

	for _, b := range payload {
		acc |= uint16(b) << index
		out = append(out, byte(acc&mask))
		acc >>= bitsPerByte
		index++

		if index == bitsPerByte {
			out = append(out, byte(acc&mask))
			acc >>= bitsPerByte
			index = 0
		}
	}

	if len(out) > expectedLen {
		out = out[:expectedLen]
	}
	return out, nil
}
