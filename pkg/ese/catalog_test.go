package ese

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildCatalogTableLeaf(name string, objID, id int32) []byte {
	b := make([]byte, 0, 64)
	b = append(b, 8, 128) // lastFixed=8 (through root_flag), lastVariable=128 (name only)

	put4 := func(v int32) { tmp := make([]byte, 4); binary.LittleEndian.PutUint32(tmp, uint32(v)); b = append(b, tmp...) }
	put2 := func(v uint16) { tmp := make([]byte, 2); binary.LittleEndian.PutUint16(tmp, v); b = append(b, tmp...) }

	put4(objID)    // col1: obj_id_table
	put2(1)        // col2: catalog_type = Table
	put4(id)       // col3: id
	put4(0)        // col4: column_or_fdp
	put4(0)        // col5: space_usage
	put4(0)        // col6: flags
	put4(0)        // col7: pages_or_locale
	b = append(b, 1) // col8: root_flag

	put2(uint16(len(name))) // variable size table: col128 cumulative size
	b = append(b, []byte(name)...)
	return b
}

func TestParseCatalogLeafTable(t *testing.T) {
	row, ok := parseCatalogLeaf(buildCatalogTableLeaf("TestTable", 50, 50))
	require.True(t, ok)
	require.Equal(t, CatalogTable, row.Type)
	require.Equal(t, "TestTable", row.Name)
	require.Equal(t, int32(50), row.ObjIDTable)
}

func TestBuildTableInfo(t *testing.T) {
	tableRow, _ := parseCatalogLeaf(buildCatalogTableLeaf("Msg", 10, 10))

	colB := buildCatalogTableLeaf("Subject", 10, 11)
	colRow, _ := parseCatalogLeaf(colB)
	colRow.Type = CatalogColumn
	colRow.ColumnOrFDP = 10 // father data page = the table's obj id
	colRow.SpaceUsage = int32(ColText)

	lvRow := CatalogRow{ObjIDTable: 10, Type: CatalogLongValue, ColumnOrFDP: 77}

	info, err := BuildTableInfo([]CatalogRow{tableRow, colRow, lvRow}, "Msg")
	require.NoError(t, err)
	require.Equal(t, "Msg", info.Name)
	require.Len(t, info.Columns, 1)
	require.Equal(t, "Subject", info.Columns[0].Name)
	require.Equal(t, ColText, info.Columns[0].Type)
	require.True(t, info.HasLongValue)
	require.Equal(t, int32(77), info.LongValueTable)
}

func TestBuildTableInfoNotFound(t *testing.T) {
	_, err := BuildTableInfo(nil, "Missing")
	require.ErrorIs(t, err, ErrTableNotFound)
}
