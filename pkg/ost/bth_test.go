package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBTHHeap() Heap {
	header := make([]byte, 8)
	header[0] = bthSignature
	header[1] = 2 // keySize
	header[2] = 6 // entrySize
	header[3] = 0 // levels (leaf root)
	putU32(header[4:], 64) // rootHID -> allocIndex 2

	rec1 := []byte{0x01, 0x00, 'a', 'a', 'a', 'a', 'a', 'a'}
	rec2 := []byte{0x02, 0x00, 'b', 'b', 'b', 'b', 'b', 'b'}
	leaf := append(append([]byte{}, rec1...), rec2...)

	return Heap{Allocs: [][]byte{header, leaf}}
}

func TestLoadBTHEntriesLeafRoot(t *testing.T) {
	h := buildBTHHeap()
	records, keySize, entrySize, err := LoadBTHEntries(h, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, keySize)
	assert.Equal(t, 6, entrySize)
	require.Len(t, records, 2)
	assert.Equal(t, []byte{0x01, 0x00, 'a', 'a', 'a', 'a', 'a', 'a'}, records[0])
	assert.Equal(t, []byte{0x02, 0x00, 'b', 'b', 'b', 'b', 'b', 'b'}, records[1])
}

func TestParseBTHHeaderBadSignature(t *testing.T) {
	_, err := parseBTHHeader(make([]byte, 8))
	require.ErrorIs(t, err, ErrCorruptBTH)
}

func TestLoadBTHEntriesMissingHeader(t *testing.T) {
	h := Heap{}
	_, _, _, err := LoadBTHEntries(h, 1)
	require.Error(t, err)
}
