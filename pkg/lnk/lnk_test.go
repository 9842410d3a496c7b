package lnk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func minimalHeader(flags LinkFlags) []byte {
	b := make([]byte, headerSize)
	putU32(b, 0x4C)
	copy(b[4:20], headerGUID[:])
	putU32(b[20:], uint32(flags))
	putU32(b[24:], 0) // file attrs
	// timestamps left zero
	putU32(b[52:], 0) // target size
	putU32(b[56:], 0) // icon index
	putU32(b[60:], 1) // show command
	return b
}

func TestParseHeaderOnly(t *testing.T) {
	b := minimalHeader(0)
	link, err := Parse(b)
	require.NoError(t, err)
	assert.Empty(t, link.IDList)
	assert.Nil(t, link.LinkInfo)
}

func TestParseBadMagic(t *testing.T) {
	b := minimalHeader(0)
	putU32(b, 5)
	_, err := Parse(b)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestParseWithUnicodeStrings(t *testing.T) {
	b := minimalHeader(HasName | HasArguments | IsUnicode)
	name := utf16("hello")
	args := utf16("world")
	b = append(b, u16(uint16(len("hello")))...)
	b = append(b, name...)
	b = append(b, u16(uint16(len("world")))...)
	b = append(b, args...)
	b = append(b, 0, 0, 0, 0) // terminal extra-data block

	link, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", link.Strings.Description)
	assert.Equal(t, "world", link.Strings.CommandLineArgs)
}

func TestParseWithIDListAndExtraBlock(t *testing.T) {
	b := minimalHeader(HasTargetIDList)

	// one shell item: size(2)=5, then 3 bytes of payload (typeByte + 2 data bytes)
	item := []byte{0x05, 0x00, 0x1F, 0xAA, 0xBB}
	terminator := []byte{0x00, 0x00}
	idlist := append(append([]byte{}, item...), terminator...)
	b = append(b, u16(uint16(len(idlist)))...)
	b = append(b, idlist...)

	// extra block: size=12, sig=0xA0000001 (environment), 4 bytes data
	extra := make([]byte, 12)
	putU32(extra, 12)
	putU32(extra[4:], SigEnvironment)
	copy(extra[8:], []byte{1, 2, 3, 4})
	b = append(b, extra...)
	b = append(b, 0, 0, 0, 0)

	link, err := Parse(b)
	require.NoError(t, err)
	require.Len(t, link.IDList, 1)
	assert.Equal(t, ItemRootFolder, link.IDList[0].Class)
	require.Len(t, link.ExtraBlocks, 1)
	assert.Equal(t, SigEnvironment, link.ExtraBlocks[0].Signature)
	assert.Equal(t, []byte{1, 2, 3, 4}, link.ExtraBlocks[0].Data)
}

func u16(v uint16) []byte { b := make([]byte, 2); putU16(b, v); return b }
func utf16(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}
