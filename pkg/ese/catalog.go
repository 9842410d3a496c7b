package ese

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCatalog is returned when the Catalog (MSysObjects) bootstrap fails.
var ErrCatalog = errors.New("ese: catalog")

// CatalogType mirrors the "catalog type" fixed column of an MSysObjects row.
type CatalogType int

const (
	CatalogTable CatalogType = iota + 1
	CatalogColumn
	CatalogIndex
	CatalogLongValue
	CatalogCallback
	CatalogSLVAvail
	CatalogSLVSpaceMap
	CatalogUnknown CatalogType = 0
)

// CatalogRow is one parsed MSysObjects row. The Catalog table's own schema
// is fixed by the ESE format (it describes itself), so its columns are
// decoded by position rather than looked up through TableInfo.
type CatalogRow struct {
	ObjIDTable    int32
	Type          CatalogType
	ID            int32
	ColumnOrFDP   int32
	SpaceUsage    int32
	Flags         ColumnFlags
	PagesOrLocale int32
	RootFlag      uint8
	Name          string
	TemplateTable string
}

// catalogPage is logical page 4, shifted by one for the shadow header copy
// that precedes every ESE database's real page 0.
const catalogPage = 5

// ParseCatalog reads the Catalog's root page and all of its leaf/branch
// descendants, returning every non-defunct MSysObjects row.
func ParseCatalog(pageReader func(pg uint32) ([]byte, error), header Header) ([]CatalogRow, error) {
	root, err := pageReader(catalogPage)
	if err != nil {
		return nil, fmt.Errorf("%w: read root: %v", ErrCatalog, err)
	}
	hdr, err := ParsePage(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	visited := map[uint32]bool{catalogPage: true}
	var rows []CatalogRow
	if err := walkCatalogPage(hdr, pageReader, visited, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func walkCatalogPage(hdr PageHeader, pageReader func(uint32) ([]byte, error), visited map[uint32]bool, rows *[]CatalogRow) error {
	hasRoot := hdr.Flags.Has(PageRoot)
	hasKey := true
	var keyData []byte

	for _, tag := range hdr.Tags {
		if tag.Flags.Has(TagDefunct) {
			continue
		}
		data, err := hdr.TagData(tag)
		if err != nil {
			continue
		}
		if hasRoot {
			// First tag on a root page is the root-page header, not data.
			hasRoot = false
			hasKey = false
			continue
		}
		if hasKey && len(keyData) == 0 {
			keyData = data
			continue
		}

		if hdr.Flags.Has(PageLeaf) {
			row, ok := parseCatalogLeaf(data)
			if ok {
				*rows = append(*rows, row)
			}
			continue
		}

		// Branch entry: payload's trailing 4 bytes give the child page.
		if len(data) < 4 {
			continue
		}
		child := buf.U32LE(data[len(data)-4:])
		if visited[child] {
			continue
		}
		visited[child] = true
		childBytes, err := pageReader(child + 1)
		if err != nil {
			continue
		}
		childHdr, err := ParsePage(childBytes)
		if err != nil {
			continue
		}
		if err := walkCatalogPage(childHdr, pageReader, visited, rows); err != nil {
			return err
		}
	}
	return nil
}

// parseCatalogLeaf decodes one DataDefinition leaf payload using the
// Catalog's fixed, statically-known schema. Fixed columns 1-13 are stepped
// over by width, but only columns 1-8 are stored in the row; of the
// variable columns only 128 (name) and 130 (template table) are stored.
func parseCatalogLeaf(b []byte) (CatalogRow, bool) {
	if len(b) < 4 {
		return CatalogRow{}, false
	}
	lastFixed := b[0]
	lastVariable := b[1]
	pos := 2

	row := CatalogRow{}
	widths := []int{4, 2, 4, 4, 4, 4, 4, 1, 2, 4, 2, 4, 8}
	for col := 1; col <= int(lastFixed) && col <= len(widths); col++ {
		w := widths[col-1]
		if pos+w > len(b) {
			return row, true
		}
		switch col {
		case 1:
			row.ObjIDTable = int32(buf.U32LE(b[pos:]))
		case 2:
			id := buf.U16LE(b[pos:])
			if id >= 1 && id <= 7 {
				row.Type = CatalogType(id)
			} else {
				row.Type = CatalogUnknown
			}
		case 3:
			row.ID = int32(buf.U32LE(b[pos:]))
		case 4:
			row.ColumnOrFDP = int32(buf.U32LE(b[pos:]))
		case 5:
			row.SpaceUsage = int32(buf.U32LE(b[pos:]))
		case 6:
			row.Flags = ColumnFlags(buf.U32LE(b[pos:]))
		case 7:
			row.PagesOrLocale = int32(buf.U32LE(b[pos:]))
		case 8:
			row.RootFlag = b[pos]
		}
		pos += w
	}

	if lastVariable < 128 {
		return row, true
	}
	count := int(lastVariable) - 128 + 1
	sizesEnd := pos + count*2
	if sizesEnd > len(b) {
		return row, true
	}
	dataStart := sizesEnd
	prev := 0
	for i := 0; i < count; i++ {
		raw := buf.U16LE(b[pos+i*2:])
		if raw&0x8000 != 0 {
			continue
		}
		size := int(raw) - prev
		if size < 0 || dataStart+size > len(b) {
			break
		}
		switch 128 + i {
		case 128:
			row.Name = string(b[dataStart : dataStart+size])
		case 130:
			row.TemplateTable = string(b[dataStart : dataStart+size])
		}
		dataStart += size
		prev = int(raw)
	}
	return row, true
}
