package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressXpressLiteralOnly(t *testing.T) {
	// indicator word 0 (all literal bits) followed by five literal bytes; the
	// expected length stops decoding after the fifth, so no back-reference
	// is ever read.
	compressed := []byte{0x00, 0x00, 0x00, 0x00, 'H', 'e', 'l', 'l', 'o'}
	out, err := DecompressXpress(compressed, 5)
	require.NoError(t, err)
	require.Equal(t, "Hello", string(out))
}

func TestDecompressXpressBackReference(t *testing.T) {
	// The first token is the literal "A", the second a back-reference copying
	// it three more times (length nibble 0 -> length 3, distance word encodes
	// distance 1).
	//
	// Control bits are consumed MSB-first from the 32-bit LE word, so to make
	// the *first* token literal and the *second* a back-reference, bit 31 must
	// be 0 and bit 30 must be 1: indicator = 0x40000000.
	indicator := []byte{0x00, 0x00, 0x00, 0x40}
	// distance=1 (word>>3==0 -> distance=1), length nibble=0 -> length=3
	backref := []byte{0x00, 0x00}
	compressed := append(append([]byte{}, indicator...), 'A')
	compressed = append(compressed, backref...)

	out, err := DecompressXpress(compressed, 4)
	require.NoError(t, err)
	require.Equal(t, "AAAA", string(out))
}

func TestDecompressXpressTruncated(t *testing.T) {
	compressed := []byte{0x00, 0x00, 0x00, 0x80} // first bit set, no backref bytes follow
	_, err := DecompressXpress(compressed, 4)
	require.ErrorIs(t, err, ErrTruncatedInput)
}
