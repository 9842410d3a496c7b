package ese

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRowFixedAndVariable(t *testing.T) {
	b := []byte{
		1,          // lastFixedID
		128,        // lastVariableID
		0x07, 0, 0, 0, // fixed col1: Long=7
		4, 0, // variable size table: col128 cumulative size 4
		0x41, 0x00, 0x42, 0x00, // "AB" UTF-16LE
	}
	cols := []ColumnInfo{
		{ID: 1, Type: ColLong},
		{ID: 128, Type: ColText},
	}
	row, err := ParseRow(b, cols)
	require.NoError(t, err)
	require.Equal(t, []byte{0x07, 0, 0, 0}, row.Fixed[1])
	require.Equal(t, []byte{0x41, 0x00, 0x42, 0x00}, row.Variable[128])
}

func TestParseRowTaggedSection(t *testing.T) {
	// Directory: two tags, dir size = 8. tag0 offset=8 (dir size, payload
	// starts right after the directory); tag1 offset=10 (tag0's payload is
	// 2 bytes: a flags byte + 1 data byte).
	b := []byte{
		0, 0, // lastFixed=0, lastVariable=0 -> no fixed/variable section
		0, 1, 8, 0, // tag0: column 256, offset 8
		1, 1, 10, 0, // tag1: column 257, offset 10
		0x01, 0xAA, // tag0 payload: flags=1 (Variable), data=0xAA
		0x02, 0xBB, 0xCC, // tag1 payload: flags=2 (Compressed), data=0xBB,0xCC
	}
	row, err := ParseRow(b, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA}, row.Tagged[256].Data)
	require.True(t, row.Tagged[256].Flags.Has(TagValVariable))
	require.Equal(t, []byte{0xBB, 0xCC}, row.Tagged[257].Data)
	require.True(t, row.Tagged[257].Flags.Has(TagValCompressed))
}
