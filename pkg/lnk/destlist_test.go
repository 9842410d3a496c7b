package lnk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDestListBuffer() []byte {
	path := "abc"
	pathBytes := utf16(path)
	recSize := 122 + len(pathBytes)
	b := make([]byte, destListHeaderSize+recSize)
	rec := b[destListHeaderSize:]

	copy(rec[64:88], "testhost")
	putU32(rec[88:], 7) // entry id
	putU64(rec[100:], 0x01D7000000000000)
	putU32(rec[108:], 0xFFFFFFFF) // pin status -1
	putU16(rec[120:], uint16(len(path)))
	copy(rec[122:], pathBytes)
	return b
}

func TestParseDestList(t *testing.T) {
	b := buildDestListBuffer()
	entries := parseDestList(b)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.EqualValues(t, 7, e.EntryID)
	assert.EqualValues(t, -1, e.PinStatus)
	assert.Equal(t, "abc", e.Path)
	assert.Equal(t, "testhost", e.Hostname)
}

func TestParseDestListEmpty(t *testing.T) {
	assert.Empty(t, parseDestList(make([]byte, 10)))
}

func TestParseCustomDestinations(t *testing.T) {
	link1 := minimalHeader(0)
	link2 := minimalHeader(HasName)
	name := utf16("x")
	link2 = append(link2, u16(1)...)
	link2 = append(link2, name...)
	link2 = append(link2, 0, 0, 0, 0)

	buf := append(append([]byte{}, link1...), link2...)
	buf = append(buf, customJumpListFooter...)

	links, err := ParseCustomDestinations(buf)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "x", links[1].Strings.Description)
}
