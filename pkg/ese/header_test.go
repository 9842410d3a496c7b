package ese

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeHeader(pageSize uint32) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[headerMagicOffset:], headerMagic)
	binary.LittleEndian.PutUint32(b[headerPageSizeOffset:], pageSize)
	return b
}

func TestParseHeaderDefaultPageSize(t *testing.T) {
	h, err := ParseHeader(makeHeader(0))
	require.NoError(t, err)
	require.Equal(t, uint32(defaultPageSize), h.PageSize)
}

func TestParseHeaderExplicitPageSize(t *testing.T) {
	h, err := ParseHeader(makeHeader(32768))
	require.NoError(t, err)
	require.Equal(t, uint32(32768), h.PageSize)
}

func TestParseHeaderBadMagic(t *testing.T) {
	b := make([]byte, HeaderSize)
	_, err := ParseHeader(b)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestPageOffset(t *testing.T) {
	h := Header{PageSize: 4096}
	require.Equal(t, int64(2*4096), h.PageOffset(1))
}
