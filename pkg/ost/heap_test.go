package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHeapPayload() []byte {
	payload := make([]byte, 24)
	putU16(payload[0:], 20) // tableOffset
	payload[3] = HeapRootPropertyContext
	putU32(payload[4:], 32) // hidRoot -> allocIndex 1
	copy(payload[8:20], []byte("ALLOC0001234"))
	putU16(payload[20:], 8)
	putU16(payload[22:], 20)
	return payload
}

func TestParseHeap(t *testing.T) {
	payload := buildHeapPayload()
	h, err := ParseHeap(payload)
	require.NoError(t, err)
	assert.Equal(t, byte(HeapRootPropertyContext), h.RootType)
	assert.Equal(t, 32, h.HIDRoot)
	require.Len(t, h.Allocs, 1)
	assert.Equal(t, "ALLOC0001234", string(h.Allocs[0]))

	alloc, ok := h.Alloc(hidAllocIndex(h.HIDRoot))
	require.True(t, ok)
	assert.Equal(t, "ALLOC0001234", string(alloc))
}

func TestParseHeapTooSmall(t *testing.T) {
	_, err := ParseHeap(make([]byte, 2))
	require.ErrorIs(t, err, ErrCorruptHeap)
}

func TestHeapAllocOutOfRange(t *testing.T) {
	h := Heap{Allocs: [][]byte{[]byte("a")}}
	_, ok := h.Alloc(5)
	assert.False(t, ok)
	_, ok = h.Alloc(0)
	assert.False(t, ok)
}
