package ese

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/codec"
	"github.com/forensic-go/windecode/pkg/record"
)

// ErrTableNotFound is returned when TableInfo can't find a matching
// Catalog entry for the requested name.
var ErrTableNotFound = errors.New("ese: table not found")

// File is a handle over an opened ESE database: its header plus a
// page-fetching function bound to the underlying reader.
type File struct {
	Header Header
	pages  func(pg uint32) ([]byte, error)
}

// Open validates the header and returns a File bound to src for page
// fetches. src must expose the whole database (ReaderAt semantics).
func Open(src io.ReaderAt) (*File, error) {
	hb := make([]byte, HeaderSize)
	if _, err := src.ReadAt(hb, 0); err != nil {
		return nil, fmt.Errorf("ese: read header: %w", err)
	}
	h, err := ParseHeader(hb)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h}
	f.pages = func(pg uint32) ([]byte, error) {
		page := make([]byte, h.PageSize)
		// Callers (catalogPage, AllPages, Rows) pass the logical page number
		// already shifted by one for the shadow header, so pg is the page's
		// index within the file.
		off := int64(pg) * int64(h.PageSize)
		if _, err := src.ReadAt(page, off); err != nil {
			return nil, fmt.Errorf("ese: read page %d: %w", pg, err)
		}
		return page, nil
	}
	return f, nil
}

// Catalog returns every non-defunct MSysObjects row.
func (f *File) Catalog() ([]CatalogRow, error) {
	return ParseCatalog(f.pages, f.Header)
}

// BuildTableInfo aggregates one table's Catalog entry (the Table row itself)
// with its columns (Column rows whose father-data-page is the table's
// object id), in column-id order.
func BuildTableInfo(catalog []CatalogRow, name string) (TableInfo, error) {
	var table *CatalogRow
	for i := range catalog {
		if catalog[i].Type == CatalogTable && catalog[i].Name == name {
			table = &catalog[i]
			break
		}
	}
	if table == nil {
		return TableInfo{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}

	info := TableInfo{ObjIDTable: table.ObjIDTable, Name: table.Name, RootPage: table.ColumnOrFDP}
	for _, row := range catalog {
		if row.Type == CatalogColumn && row.ColumnOrFDP == table.ObjIDTable {
			info.Columns = append(info.Columns, ColumnInfo{
				ID:    row.ID,
				Name:  row.Name,
				Type:  ColumnType(row.SpaceUsage), // Column rows store coltyp in the "space usage" fixed slot
				Flags: row.Flags,
			})
		}
		if row.Type == CatalogLongValue && row.ObjIDTable == table.ObjIDTable {
			info.HasLongValue = true
			info.LongValueTable = row.ColumnOrFDP
		}
	}
	sort.SliceStable(info.Columns, func(i, j int) bool { return info.Columns[i].ID < info.Columns[j].ID })
	return info, nil
}

// AllPages walks the table's B-tree depth-first from root, collecting leaf
// page numbers. A visited set short-circuits malformed back-pointers.
func (f *File) AllPages(root uint32) ([]uint32, error) {
	visited := map[uint32]bool{}
	var leaves []uint32
	var walk func(pg uint32) error
	walk = func(pg uint32) error {
		if visited[pg] {
			return nil
		}
		visited[pg] = true
		raw, err := f.pages(pg + 1)
		if err != nil {
			return err
		}
		hdr, err := ParsePage(raw)
		if err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrCorruptPage, pg, err)
		}
		if hdr.Flags.Has(PageLeaf) {
			leaves = append(leaves, pg)
			return nil
		}
		skipFirst := hdr.Flags.Has(PageRoot)
		for _, tag := range hdr.Tags {
			if tag.Flags.Has(TagDefunct) {
				continue
			}
			if skipFirst {
				skipFirst = false
				continue
			}
			data, err := hdr.TagData(tag)
			if err != nil || len(data) < 4 {
				continue
			}
			child := buf.U32LE(data[len(data)-4:])
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return leaves, nil
}

// Rows iterates every DataDefinition leaf entry across the given pages,
// yielding raw row bytes for ParseRow.
func (f *File) Rows(pages []uint32) ([][]byte, error) {
	var rows [][]byte
	for _, pg := range pages {
		raw, err := f.pages(pg + 1)
		if err != nil {
			return nil, err
		}
		hdr, err := ParsePage(raw)
		if err != nil {
			continue // corrupt page tags: skip this leaf, continue the table
		}
		skipFirst := hdr.Flags.Has(PageRoot)
		for _, tag := range hdr.Tags {
			if tag.Flags.Has(TagDefunct) {
				continue
			}
			if skipFirst {
				skipFirst = false
				continue
			}
			data, err := hdr.TagData(tag)
			if err != nil {
				continue
			}
			rows = append(rows, data)
		}
	}
	return rows, nil
}

// LongValueLeaves parses the long-value tree's leaf entries into
// (key, data) pairs: each entry is a 16-bit key length, the big-endian key
// (8-byte value id plus 4-byte chunk index), then the chunk bytes.
func (f *File) LongValueLeaves(pages []uint32) ([][2][]byte, error) {
	raw, err := f.Rows(pages)
	if err != nil {
		return nil, err
	}
	var leaves [][2][]byte
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		keyLen := int(binary.LittleEndian.Uint16(entry))
		if keyLen < 12 || 2+keyLen > len(entry) {
			continue
		}
		leaves = append(leaves, [2][]byte{entry[2 : 2+keyLen], entry[2+keyLen:]})
	}
	return leaves, nil
}

// LongValues walks the table's long-value tree and indexes every chunk for
// substitution during Materialize. Tables without a long-value container
// yield an empty index.
func (f *File) LongValues(info TableInfo) (LongValues, error) {
	if !info.HasLongValue {
		return NewLongValues(nil), nil
	}
	pages, err := f.AllPages(uint32(info.LongValueTable))
	if err != nil {
		return NewLongValues(nil), err
	}
	leaves, err := f.LongValueLeaves(pages)
	if err != nil {
		return NewLongValues(nil), err
	}
	return NewLongValues(leaves), nil
}

// Materialize converts one raw DataDefinition row into a column-name keyed
// record of normalized strings, substituting long-value payloads when lv is
// non-nil.
func Materialize(raw []byte, info TableInfo, lv *LongValues) (map[string]string, error) {
	row, err := ParseRow(raw, info.Columns)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, col := range info.Columns {
		data, tagged, ok := columnBytes(row, col)
		if !ok {
			continue
		}
		s, err := materializeValue(data, col, tagged, lv)
		if err != nil {
			return nil, fmt.Errorf("ese: column %q: %w", col.Name, err)
		}
		out[col.Name] = s
	}
	return out, nil
}

func columnBytes(row RawRow, col ColumnInfo) ([]byte, *TaggedValue, bool) {
	if b, ok := row.Fixed[int(col.ID)]; ok {
		return b, nil, true
	}
	if b, ok := row.Variable[int(col.ID)]; ok {
		return b, nil, true
	}
	if t, ok := row.Tagged[int(col.ID)]; ok {
		return t.Data, &t, true
	}
	return nil, nil, false
}

func materializeValue(data []byte, col ColumnInfo, tagged *TaggedValue, lv *LongValues) (string, error) {
	if tagged != nil && tagged.Flags.Has(TagValMultiValue) && !tagged.Flags.Has(TagValLongValue) {
		return materializeMultiValue(data, col, tagged, lv)
	}

	compressedFlag := col.Flags.Has(ColFlagCompressed) || (tagged != nil && tagged.Flags.Has(TagValCompressed))
	if compressedFlag {
		decompressed, ok, err := decompressGate(data)
		if err != nil {
			return "", err
		}
		if ok {
			data = decompressed
		}
	}

	switch col.Type {
	case ColNil:
		return "", nil
	case ColBit:
		return record.Bool(len(data) > 0 && data[0] != 0), nil
	case ColUnsignedByte:
		if len(data) < 1 {
			return "", nil
		}
		return record.Uint(uint64(data[0])), nil
	case ColShort:
		if len(data) < 2 {
			return "", nil
		}
		return record.Int(int64(int16(binary.LittleEndian.Uint16(data)))), nil
	case ColUnsignedShort:
		if len(data) < 2 {
			return "", nil
		}
		return record.Uint(uint64(binary.LittleEndian.Uint16(data))), nil
	case ColLong:
		if len(data) < 4 {
			return "", nil
		}
		return record.Int(int64(int32(binary.LittleEndian.Uint32(data)))), nil
	case ColUnsignedLong:
		if len(data) < 4 {
			return "", nil
		}
		return record.Uint(uint64(binary.LittleEndian.Uint32(data))), nil
	case ColCurrency, ColLongLong:
		if len(data) < 8 {
			return "", nil
		}
		return record.Int(int64(binary.LittleEndian.Uint64(data))), nil
	case ColFloat32:
		if len(data) < 4 {
			return "", nil
		}
		return record.Float(float64(buf.F32LE(data))), nil
	case ColFloat64:
		if len(data) < 8 {
			return "", nil
		}
		return record.Float(buf.F64LE(data)), nil
	case ColDateTime:
		if len(data) < 8 {
			return "", nil
		}
		v := binary.LittleEndian.Uint64(data)
		if col.Flags.Has(ColFlagNotNull) {
			return record.FiletimeToISO8601(v), nil
		}
		return record.OLEDateToISO8601(buf.F64LE(data)), nil
	case ColGUID:
		return record.FormatGUID(data)
	case ColText:
		return record.UTF16LEToString(data), nil
	case ColBinary:
		return record.Base64(data), nil
	case ColLongBinary, ColLongText:
		return materializeLongValue(data, col, lv)
	default:
		return record.Base64(data), nil
	}
}

func materializeLongValue(raw []byte, col ColumnInfo, lv *LongValues) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var full []byte
	if lv != nil {
		if v, ok := lv.Get(raw); ok {
			full = v
		}
	}
	if full == nil {
		// Missing long-value: leave the raw key as base64 rather than fail
		// the whole row.
		return record.Base64(raw), nil
	}
	if col.Type == ColLongText {
		return record.UTF16LEToString(full), nil
	}
	return record.Base64(full), nil
}

func materializeMultiValue(data []byte, col ColumnInfo, tagged *TaggedValue, lv *LongValues) (string, error) {
	if len(data) < 2 {
		return record.MultiValue(nil)
	}
	firstOffset := binary.LittleEndian.Uint16(data)
	n := int(firstOffset) / 2
	offsets := make([]int, 0, n)
	for i := 0; i < n && i*2+2 <= len(data); i++ {
		offsets = append(offsets, int(binary.LittleEndian.Uint16(data[i*2:])))
	}
	var values []string
	for i := range offsets {
		start := offsets[i]
		end := len(data)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if start < 0 || end > len(data) || start > end {
			continue
		}
		v := data[start:end]
		s, err := materializeValue(v, col, &TaggedValue{Flags: tagged.Flags &^ TagValMultiValue}, lv)
		if err != nil {
			return "", err
		}
		values = append(values, s)
	}
	return record.MultiValue(values)
}

// decompressGate implements the ESE engine's compression heuristic: a
// "compressed" flag on a column is sometimes a false positive left over
// from a table whose data was never actually compressed, so the decoder
// only trusts the flag when the payload's leading scheme byte looks
// compressed (0x18 marks XPRESS-Huffman with a 16-bit decompressed size;
// the other recognized scheme values mark seven-bit packing).
func decompressGate(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	scheme := data[0] >> 3
	if scheme != 1 && scheme != 2 && scheme != 3 {
		return nil, false, nil
	}
	if data[0] == 0x18 {
		if len(data) < 3 {
			return nil, false, nil
		}
		expected := int(binary.LittleEndian.Uint16(data[1:]))
		out, err := codec.DecompressXpressHuffman(data[3:], expected)
		if err != nil {
			return nil, false, fmt.Errorf("xpress-huffman: %w", err)
		}
		return out, true, nil
	}
	out, err := codec.DecompressSevenBit(data, (len(data)-1)*8/7)
	if err != nil {
		return nil, false, fmt.Errorf("seven-bit: %w", err)
	}
	return out, true, nil
}
