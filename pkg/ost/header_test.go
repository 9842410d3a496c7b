package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHeader(formatByte byte, fileType byte, rootOff int, nbt, bbt uint64) []byte {
	b := make([]byte, 0x240)
	copy(b[0:4], "!BDN")
	b[0x08] = fileType
	b[0x0A] = formatByte
	putU64(b[rootOff:], nbt)
	putU64(b[rootOff+8:], bbt)
	return b
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func TestParseHeaderUnicode64(t *testing.T) {
	b := buildHeader(0x15, byte(FileTypeOST), headerRootOffU64, 0x1000, 0x2000)
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, FormatUnicode64, h.Format)
	assert.Equal(t, FileTypeOST, h.Type)
	assert.Equal(t, 512, h.PageSize)
	assert.EqualValues(t, 0x1000, h.NBTRoot)
	assert.EqualValues(t, 0x2000, h.BBTRoot)
}

func TestParseHeaderUnicode64_4k(t *testing.T) {
	b := buildHeader(0x24, byte(FileTypePST), headerRootOffU64_4, 0x4000, 0x5000)
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, FormatUnicode64_4k, h.Format)
	assert.Equal(t, 4096, h.PageSize)
}

func TestParseHeaderANSI(t *testing.T) {
	b := buildHeader(0x0E, byte(FileTypePST), headerRootOffANSI, 0x10, 0x20)
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, FormatANSI32, h.Format)
	assert.Equal(t, 512, h.PageSize)
}

func TestParseHeaderBadMagic(t *testing.T) {
	b := buildHeader(0x15, byte(FileTypeOST), headerRootOffU64, 0, 0)
	copy(b[0:4], "XXXX")
	_, err := ParseHeader(b)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestParseHeaderBadFileType(t *testing.T) {
	b := buildHeader(0x15, 0x99, headerRootOffU64, 0, 0)
	_, err := ParseHeader(b)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestParseHeaderTooSmall(t *testing.T) {
	_, err := ParseHeader(make([]byte, 16))
	require.ErrorIs(t, err, ErrBadHeader)
}
