package ese

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptRow is returned when a row's fixed/variable/tagged sections
// cannot be split apart.
var ErrCorruptRow = errors.New("ese: corrupt row")

// TaggedValue is one tagged-section column: its raw payload and the status
// bits recorded alongside its offset.
type TaggedValue struct {
	Data  []byte
	Flags TagFlags2
}

// TagFlags2 mirrors the per-tagged-column flag bits (distinct from the page
// TagFlags, which mark page-tag-array slots rather than row columns).
type TagFlags2 uint8

const (
	TagValVariable     TagFlags2 = 1 << 0
	TagValCompressed   TagFlags2 = 1 << 1
	TagValLongValue    TagFlags2 = 1 << 2
	TagValMultiValue   TagFlags2 = 1 << 3
	TagValMultiValSize TagFlags2 = 1 << 4
)

func (f TagFlags2) Has(bit TagFlags2) bool { return f&bit != 0 }

// RawRow is a DataDefinition leaf entry split into its three sections,
// keyed by 1-based column id (fixed: 1..lastFixedID, variable:
// 128..lastVariableID, tagged: arbitrary ids starting at 256).
type RawRow struct {
	LastFixedID    uint8
	LastVariableID uint8
	Fixed          map[int][]byte
	Variable       map[int][]byte
	Tagged         map[int]TaggedValue
}

// ParseRow splits one leaf entry's DataDefinition payload into its fixed,
// variable, and tagged sections using the column widths supplied by cols
// (in column-id order, id ascending). The two-byte header gives the last
// populated fixed and variable column ids; everything after the variable
// section is tagged data.
func ParseRow(b []byte, cols []ColumnInfo) (RawRow, error) {
	if len(b) < 4 {
		return RawRow{}, fmt.Errorf("%w: row too small", ErrCorruptRow)
	}
	lastFixed := b[0]
	// Byte 1 is the last variable column id; a value below 128 means the
	// row has no variable section, matching how the catalog's own bootstrap
	// schema is laid out.
	lastVariable := b[1]
	pos := 2

	row := RawRow{
		LastFixedID:    lastFixed,
		LastVariableID: lastVariable,
		Fixed:          map[int][]byte{},
		Variable:       map[int][]byte{},
		Tagged:         map[int]TaggedValue{},
	}

	fixedCols := columnsUpTo(cols, 1, int(lastFixed))
	for _, c := range fixedCols {
		w := c.Type.fixedWidth()
		if w == 0 || pos+w > len(b) {
			break
		}
		row.Fixed[int(c.ID)] = b[pos : pos+w]
		pos += w
	}

	if lastVariable < 128 {
		if pos <= len(b) {
			row.Tagged = parseTagged(b[pos:])
		}
		return row, nil
	}

	count := int(lastVariable) - 128 + 1
	sizesStart := pos
	sizesEnd := sizesStart + count*2
	if sizesEnd > len(b) {
		return RawRow{}, fmt.Errorf("%w: variable size table truncated", ErrCorruptRow)
	}
	dataStart := sizesEnd
	prev := 0
	for i := 0; i < count; i++ {
		raw := buf.U16LE(b[sizesStart+i*2:])
		colID := 128 + i
		if raw&0x8000 != 0 {
			// High bit set: column absent, carries forward the previous
			// cumulative size unchanged.
			continue
		}
		size := int(raw) - prev
		if size < 0 || dataStart+size > len(b) {
			break
		}
		row.Variable[colID] = b[dataStart : dataStart+size]
		dataStart += size
		prev = int(raw)
	}

	if dataStart < len(b) {
		row.Tagged = parseTagged(b[dataStart:])
	}
	return row, nil
}

func columnsUpTo(cols []ColumnInfo, lo, hi int) []ColumnInfo {
	var out []ColumnInfo
	for _, c := range cols {
		if int(c.ID) >= lo && int(c.ID) <= hi {
			out = append(out, c)
		}
	}
	return out
}

// parseTagged splits the tagged-data remainder of a row into a directory of
// (column, offset) pairs followed by payload slices. A raw offset with bit
// 0x4000 set means the flags byte is folded into the offset value itself
// (the effective offset is offset XOR 0x4000) rather than stored as a
// leading byte of the payload.
func parseTagged(b []byte) map[int]TaggedValue {
	out := map[int]TaggedValue{}
	if len(b) < 4 {
		return out
	}

	type dirEntry struct {
		column      int
		offset      uint16
		flagsInline bool
	}
	var dir []dirEntry

	first := dirEntry{
		column: int(buf.U16LE(b)),
		offset: buf.U16LE(b[2:]),
	}
	if first.offset&0x4000 != 0 {
		first.offset ^= 0x4000
		first.flagsInline = true
	}
	dir = append(dir, first)

	dirDataStart := int(dir[0].offset)
	if dirDataStart > len(b) {
		return out
	}
	meta := b[4:dirDataStart]
	for len(meta) >= 4 {
		col := int(buf.U16LE(meta))
		off := buf.U16LE(meta[2:])
		inline := off&0x4000 != 0
		if inline {
			off ^= 0x4000
		}
		dir = append(dir, dirEntry{column: col, offset: off, flagsInline: inline})
		meta = meta[4:]
	}

	for i, d := range dir {
		start := int(d.offset)
		var end int
		if i+1 < len(dir) {
			end = int(dir[i+1].offset)
		} else {
			end = len(b)
		}
		if start < 0 || end > len(b) || start > end {
			continue
		}
		slice := b[start:end]
		var flags TagFlags2
		payload := slice
		if d.flagsInline {
			// Flags travel in the offset field; the payload has no leading
			// flag byte of its own, matching the inline encoding above.
		} else if len(slice) >= 1 {
			flags = TagFlags2(slice[0])
			payload = slice[1:]
		}
		out[d.column] = TaggedValue{Data: payload, Flags: flags}
	}
	return out
}
