package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nbtLeafPage(nid uint32, dataBID, subBID uint64) []byte {
	b := make([]byte, btPageSize)
	putU32(b, nid)
	putU64(b[8:], dataBID)
	putU64(b[16:], subBID)
	b[btEntryAreaSize] = 1  // cEnt
	b[btEntryAreaSize+2] = 24 // entrySize
	b[btEntryAreaSize+3] = 0  // level (leaf)
	return b
}

func putU32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func bbtLeafPage(bid, offset uint64, size, refCount uint16) []byte {
	b := make([]byte, btPageSize)
	putU64(b[0:], bid)
	putU64(b[8:], offset)
	putU16(b[16:], size)
	putU16(b[18:], refCount)
	b[btEntryAreaSize] = 1
	b[btEntryAreaSize+2] = 20
	b[btEntryAreaSize+3] = 0
	return b
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func TestLoadNodeBTreeLeaf(t *testing.T) {
	page := nbtLeafPage(0x22, 0x1000, 0x2000)
	src := func(offset int64, n int) ([]byte, error) { return page, nil }
	m, err := LoadNodeBTree(src, 0)
	require.NoError(t, err)
	e, ok := m[0x22]
	require.True(t, ok)
	assert.EqualValues(t, 0x1000, e.DataBID)
	assert.EqualValues(t, 0x2000, e.SubBID)
}

func TestLoadBlockBTreeLeaf(t *testing.T) {
	page := bbtLeafPage(0x30, 0x5000, 128, 1)
	src := func(offset int64, n int) ([]byte, error) { return page, nil }
	m, err := LoadBlockBTree(src, 0)
	require.NoError(t, err)
	e, ok := m[0x30]
	require.True(t, ok)
	assert.EqualValues(t, 0x5000, e.Offset)
	assert.EqualValues(t, 128, e.Size)
	assert.EqualValues(t, 1, e.RefCount)
}

func TestLoadNodeBTreeBranch(t *testing.T) {
	leaf := nbtLeafPage(0x40, 0x100, 0x200)
	branch := make([]byte, btPageSize)
	// one branch entry: 8-byte key, 8-byte child bid
	putU64(branch[8:], 512) // child page at offset 512 in our fake src
	branch[btEntryAreaSize] = 1
	branch[btEntryAreaSize+2] = 16
	branch[btEntryAreaSize+3] = 1 // level 1 (branch)

	src := func(offset int64, n int) ([]byte, error) {
		if offset == 512 {
			return leaf, nil
		}
		return branch, nil
	}
	m, err := LoadNodeBTree(src, 0)
	require.NoError(t, err)
	_, ok := m[0x40]
	assert.True(t, ok)
}

func TestParseBTPageTooSmall(t *testing.T) {
	_, err := parseBTPage(make([]byte, 10))
	require.ErrorIs(t, err, ErrCorruptPage)
}
