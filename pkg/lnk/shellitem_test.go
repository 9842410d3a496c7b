package lnk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDListMultipleItems(t *testing.T) {
	item1 := []byte{0x03, 0x00, 0x1F}             // root folder, no extra payload
	item2 := []byte{0x04, 0x00, 0x2F, 'C'}        // volume, label "C"
	terminator := []byte{0x00, 0x00}
	data := append(append(append([]byte{}, item1...), item2...), terminator...)

	items := ParseIDList(data)
	require.Len(t, items, 2)
	assert.Equal(t, ItemRootFolder, items[0].Class)
	assert.Equal(t, ItemVolume, items[1].Class)
	assert.Equal(t, "C", items[1].Name)
}

func TestParseIDListEmpty(t *testing.T) {
	items := ParseIDList([]byte{0x00, 0x00})
	assert.Empty(t, items)
}

func TestParseFileEntryItemDirectoryVsFile(t *testing.T) {
	dirItem := make([]byte, 20)
	dirItem[0] = 0x31 // 0x30 class, bit0 set -> directory
	fileItem := make([]byte, 20)
	fileItem[0] = 0x32 // 0x30 class, bit0 clear -> file

	d := parseShellItem(dirItem)
	assert.Equal(t, ItemDirectory, d.Class)

	f := parseShellItem(fileItem)
	assert.Equal(t, ItemFile, f.Class)
}
