package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptTC is returned when a Table Context header or row array can't
// be parsed.
var ErrCorruptTC = errors.New("ost: corrupt table context")

const tcSignature = 0x7C
const tcColDescSize = 8

// ColumnDesc describes one Table Context column.
type ColumnDesc struct {
	ID         uint16
	Type       PropType
	ByteOffset uint16
	Size       uint8
	InCEB      uint8    // bit index into the row's cell-existence block
}

// TableContext is a parsed TC header: its columns, row width, and the
// heap allocation holding the packed row array.
type TableContext struct {
	Columns  []ColumnDesc
	RowWidth int
	RowsHID  int
}

// ParseTableContext reads a TCINFO header from the given heap allocation.
func ParseTableContext(heap Heap) (TableContext, error) {
	hdr, ok := heap.Alloc(hidAllocIndex(heap.HIDRoot))
	if !ok {
		return TableContext{}, fmt.Errorf("%w: header allocation missing", ErrCorruptTC)
	}
	if len(hdr) < 22 || hdr[0] != tcSignature {
		return TableContext{}, fmt.Errorf("%w: bad tcinfo signature", ErrCorruptTC)
	}
	cCols := int(hdr[1])
	rowWidth := int(buf.U16LE(hdr[2:])) // rgib[TCI_4b], the total row width
	hnidRows := int(buf.U32LE(hdr[14:]))

	descStart := 22
	tc := TableContext{RowWidth: rowWidth, RowsHID: hnidRows}
	for i := 0; i < cCols; i++ {
		off := descStart + i*tcColDescSize
		if off+tcColDescSize > len(hdr) {
			break
		}
		rec := hdr[off : off+tcColDescSize]
		tc.Columns = append(tc.Columns, ColumnDesc{
			ID:         buf.U16LE(rec[0:]),
			Type:       PropType(buf.U16LE(rec[2:])),
			ByteOffset: buf.U16LE(rec[4:]),
			Size:       rec[6],
			InCEB:      rec[7],
		})
	}
	return tc, nil
}

// Rows splits the packed row array (one heap allocation per block of
// rows) into per-row byte slices of RowWidth. Each row begins with its
// cell-existence block; column offsets already account for it.
func (tc TableContext) Rows(heap Heap) [][]byte {
	data, ok := heap.Alloc(hidAllocIndex(tc.RowsHID))
	if !ok || tc.RowWidth <= 0 {
		return nil
	}
	var rows [][]byte
	for pos := 0; pos+tc.RowWidth <= len(data); pos += tc.RowWidth {
		rows = append(rows, data[pos:pos+tc.RowWidth])
	}
	return rows
}

// CEBSize is the byte length of the cell-existence block prefixing each
// row: one bit per column.
func (tc TableContext) CEBSize() int {
	return (len(tc.Columns) + 7) / 8
}

// CellBytes returns a column's raw bytes within a row, honoring the
// cell-existence block: if the column's InCEB bit is clear the column is
// logically absent and ok is false.
func CellBytes(row []byte, col ColumnDesc, cebSize int) (data []byte, ok bool) {
	if cebSize > 0 && cebSize <= len(row) {
		ceb := row[:cebSize]
		byteIdx, bitIdx := int(col.InCEB)/8, uint(col.InCEB)%8
		if byteIdx >= len(ceb) || ceb[byteIdx]&(1<<bitIdx) == 0 {
			return nil, false
		}
	}
	start := int(col.ByteOffset)
	end := start + int(col.Size)
	if end > len(row) {
		return nil, false
	}
	return row[start:end], true
}
