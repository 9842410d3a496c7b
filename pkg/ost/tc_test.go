package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTCHeap() Heap {
	header := make([]byte, 22+2*tcColDescSize)
	header[0] = tcSignature
	header[1] = 2 // cCols
	putU16(header[2:], 7) // rowWidth
	putU32(header[14:], 64) // hnidRows -> allocIndex 2

	col1 := header[22 : 22+8]
	putU16(col1[0:], 0x0037)
	putU16(col1[2:], uint16(PropInt32))
	putU16(col1[4:], 1) // byteOffset
	col1[6] = 4         // size
	col1[7] = 0         // inCEB bit 0

	col2 := header[30 : 30+8]
	putU16(col2[0:], 0x003D)
	putU16(col2[2:], uint16(PropInt16))
	putU16(col2[4:], 5)
	col2[6] = 2
	col2[7] = 1 // inCEB bit 1

	row1 := []byte{0x03, 42, 0, 0, 0, 5, 0}
	row2 := []byte{0x01, 99, 0, 0, 0, 0, 0}
	rows := append(append([]byte{}, row1...), row2...)

	return Heap{
		HIDRoot: 32, // allocIndex 1 -> header
		Allocs:  [][]byte{header, rows},
	}
}

func TestParseTableContext(t *testing.T) {
	heap := buildTCHeap()
	tc, err := ParseTableContext(heap)
	require.NoError(t, err)
	assert.Equal(t, 7, tc.RowWidth)
	assert.Equal(t, 64, tc.RowsHID)
	require.Len(t, tc.Columns, 2)
	assert.EqualValues(t, 0x0037, tc.Columns[0].ID)
	assert.EqualValues(t, 0x003D, tc.Columns[1].ID)
}

func TestTableContextRowsAndCellBytes(t *testing.T) {
	heap := buildTCHeap()
	tc, err := ParseTableContext(heap)
	require.NoError(t, err)

	rows := tc.Rows(heap)
	require.Len(t, rows, 2)

	b, ok := CellBytes(rows[0], tc.Columns[0], 1)
	require.True(t, ok)
	assert.EqualValues(t, 42, buf32(b))

	b, ok = CellBytes(rows[0], tc.Columns[1], 1)
	require.True(t, ok)
	assert.EqualValues(t, 5, b[0])

	_, ok = CellBytes(rows[1], tc.Columns[1], 1)
	assert.False(t, ok, "col2 should be absent per row2's cell-existence block")
}

func buf32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
