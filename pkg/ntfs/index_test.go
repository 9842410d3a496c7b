package ntfs

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func buildFileNameKey(name string) []byte {
	u := utf16.Encode([]rune(name))
	key := make([]byte, 0x42+len(u)*2)
	key[0x40] = byte(len(u))
	key[0x41] = NamespaceWin32
	for i, c := range u {
		binary.LittleEndian.PutUint16(key[0x42+i*2:], c)
	}
	return key
}

func buildIndexEntry(fileRef uint64, name string, last bool) []byte {
	if last {
		entry := make([]byte, 0x10)
		binary.LittleEndian.PutUint64(entry[0:], fileRef)
		binary.LittleEndian.PutUint16(entry[8:], 0x10)
		binary.LittleEndian.PutUint32(entry[0x0C:], idxEntryFlagLast)
		return entry
	}
	key := buildFileNameKey(name)
	entry := make([]byte, 0x10+len(key))
	binary.LittleEndian.PutUint64(entry[0:], fileRef)
	binary.LittleEndian.PutUint16(entry[8:], uint16(len(entry)))
	binary.LittleEndian.PutUint16(entry[0x0A:], uint16(len(key)))
	binary.LittleEndian.PutUint32(entry[0x0C:], 0)
	copy(entry[0x10:], key)
	return entry
}

func TestParseIndexEntries(t *testing.T) {
	var buf []byte
	buf = append(buf, buildIndexEntry(123, "Windows", false)...)
	buf = append(buf, buildIndexEntry(0, "", true)...)

	entries, err := ParseIndexEntries(buf, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Windows", entries[0].Name)
	require.Equal(t, uint64(123), entries[0].FileRef.RecordNumber)
	require.False(t, entries[0].IsLast)
	require.True(t, entries[1].IsLast)
}

func TestIndexReaderFindChild(t *testing.T) {
	var buf []byte
	buf = append(buf, buildIndexEntry(123, "Windows", false)...)
	buf = append(buf, buildIndexEntry(0, "", true)...)
	entries, err := ParseIndexEntries(buf, 0)
	require.NoError(t, err)

	idx := &IndexReader{RootEntries: entries}
	ref, found, err := idx.FindChild("windows")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(123), ref.RecordNumber)

	_, found, err = idx.FindChild("nonexistent")
	require.NoError(t, err)
	require.False(t, found)
}

func TestUpCaseTableASCIIFallback(t *testing.T) {
	var t0 UpCaseTable
	require.True(t, t0.Equal("Hello", "HELLO"))
	require.False(t, t0.Equal("Hello", "World"))
}
