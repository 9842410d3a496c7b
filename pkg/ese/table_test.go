package ese

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterializeScalarColumns(t *testing.T) {
	raw := []byte{
		1, 128,
		0x07, 0, 0, 0,
		4, 0,
		0x41, 0x00, 0x42, 0x00,
	}
	info := TableInfo{Columns: []ColumnInfo{
		{ID: 1, Name: "Count", Type: ColLong},
		{ID: 128, Name: "Title", Type: ColText},
	}}

	out, err := Materialize(raw, info, nil)
	require.NoError(t, err)
	require.Equal(t, "7", out["Count"])
	require.Equal(t, "AB", out["Title"])
}

func TestMaterializeDateTimeFiletime(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 1
	raw[1] = 0
	binary.LittleEndian.PutUint64(raw[2:], 133704152590000000)

	info := TableInfo{Columns: []ColumnInfo{
		{ID: 1, Name: "Modified", Type: ColDateTime, Flags: ColFlagNotNull},
	}}
	out, err := Materialize(raw, info, nil)
	require.NoError(t, err)
	require.Equal(t, "2024-09-10T04:14:19.000Z", out["Modified"])
}

func buildVariableOnlyRow(colID int, data []byte) []byte {
	b := []byte{0, byte(colID)}
	sz := make([]byte, 2)
	binary.LittleEndian.PutUint16(sz, uint16(len(data)))
	b = append(b, sz...)
	b = append(b, data...)
	return b
}

func TestMaterializeLongValueMissing(t *testing.T) {
	key := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	raw := buildVariableOnlyRow(128, key)

	info := TableInfo{Columns: []ColumnInfo{
		{ID: 128, Name: "Body", Type: ColLongBinary},
	}}
	out, err := Materialize(raw, info, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out["Body"]) // falls back to base64 of the raw key
}

func TestMaterializeLongValueHit(t *testing.T) {
	key := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	raw := buildVariableOnlyRow(128, key)

	revKey := make([]byte, 8)
	for i := range key {
		revKey[7-i] = key[i]
	}
	chunkKey := append(append([]byte{}, revKey...), 0, 0, 0, 0)
	lv := NewLongValues([][2][]byte{{chunkKey, []byte("hello world")}})

	info := TableInfo{Columns: []ColumnInfo{
		{ID: 128, Name: "Body", Type: ColLongBinary},
	}}
	out, err := Materialize(raw, info, &lv)
	require.NoError(t, err)
	require.Equal(t, Base64OfHelloWorld, out["Body"])
}

const Base64OfHelloWorld = "aGVsbG8gd29ybGQ="

func TestLongValueLeaves(t *testing.T) {
	key := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0} // stored value id + chunk 0
	entry := []byte{12, 0}
	entry = append(entry, key...)
	entry = append(entry, []byte("hello")...)

	page := make([]byte, 80)
	binary.LittleEndian.PutUint32(page[32:], uint32(PageLeaf))
	copy(page[40:], entry)
	for i := 40 + len(entry); i < 72; i++ {
		page[i] = 0xFF // filler the tag-array scan rejects as out of range
	}
	binary.LittleEndian.PutUint16(page[74:], uint16(len(entry)))
	// bytes [76:80] left zero: terminator tag

	f := &File{pages: func(pg uint32) ([]byte, error) { return page, nil }}
	leaves, err := f.LongValueLeaves([]uint32{0})
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, key, leaves[0][0])
	require.Equal(t, "hello", string(leaves[0][1]))

	lv := NewLongValues(leaves)
	full, ok := lv.Get([]byte{0, 0, 0, 0, 0, 0, 0, 1}) // row-side key, little-endian
	require.True(t, ok)
	require.Equal(t, "hello", string(full))
}

func TestDecompressGateSevenBit(t *testing.T) {
	// Scheme byte 0x12 marks seven-bit packing; the payload decodes to "Users".
	data := []byte{0x12, 0xD5, 0x79, 0x59, 0x3E, 0x07}
	out, ok, err := decompressGate(data)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Users", string(out))
}

func TestDecompressGateNotCompressed(t *testing.T) {
	data := []byte{0x00, 0x01}
	_, ok, err := decompressGate(data)
	require.NoError(t, err)
	require.False(t, ok)
}
