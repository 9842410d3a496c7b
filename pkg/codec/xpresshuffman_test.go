package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSingleSymbolBlock constructs a 256-byte code-length table assigning
// code length 1 to a single literal symbol (so its canonical code is the bit
// "0") and zero to every other symbol, followed by a payload of all-zero
// bits. Decoding it repeatedly yields that one literal.
func buildSingleSymbolBlock(symbol byte, payloadWords int) []byte {
	table := make([]byte, huffmanTableBytes)
	i := int(symbol) / 2
	if int(symbol)%2 == 0 {
		table[i] |= 1 // low nibble: code length 1
	} else {
		table[i] |= 1 << 4 // high nibble: code length 1
	}
	out := make([]byte, 0, huffmanTableBytes+payloadWords*2)
	out = append(out, table...)
	for n := 0; n < payloadWords*2; n++ {
		out = append(out, 0x00)
	}
	return out
}

func TestDecompressXpressHuffmanSingleSymbol(t *testing.T) {
	compressed := buildSingleSymbolBlock('A', 4)
	out, err := DecompressXpressHuffman(compressed, 5)
	require.NoError(t, err)
	require.Equal(t, "AAAAA", string(out))
}

func TestParseHuffmanTableTruncated(t *testing.T) {
	_, err := parseHuffmanTable(make([]byte, huffmanTableBytes-1))
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestBuildHuffmanTableSingleSymbol(t *testing.T) {
	var lengths [huffmanSymbolCount]uint8
	lengths[65] = 1
	tbl := buildHuffmanTable(lengths)
	require.Equal(t, 1, tbl.counts[1])
	require.Equal(t, 65, tbl.symbols[tbl.firstSymbolIndex[1]])
}
