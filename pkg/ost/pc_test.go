package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPCHeap() Heap {
	rec1 := []byte{0x34, 0x12, 0x03, 0x00, 0xAB, 0x00, 0x00, 0x00} // id=0x1234 PropInt32 ref=0xAB (embedded)
	rec2 := []byte{0x78, 0x56, 0x1F, 0x00, 0x40, 0x00, 0x00, 0x00} // id=0x5678 PropString ref=0x40 -> allocIndex 1
	leaf := append(append([]byte{}, rec1...), rec2...)

	data := []byte{0x48, 0x00, 0x49, 0x00} // "HI" UTF-16LE

	header := make([]byte, 8)
	header[0] = bthSignature
	header[1] = 2
	header[2] = 6
	header[3] = 0
	putU32(header[4:], 32) // rootHID -> allocIndex 1 (the leaf)

	return Heap{
		HIDRoot: 96, // allocIndex 3 -> the header
		Allocs:  [][]byte{leaf, data, header},
	}
}

func TestParsePropertyContextEmbeddedAndHeapRef(t *testing.T) {
	heap := buildPCHeap()
	props, err := ParsePropertyContext(heap, nil, nil)
	require.NoError(t, err)
	require.Len(t, props, 2)

	var embedded, heapRef *PropEntry
	for i := range props {
		switch props[i].ID {
		case 0x1234:
			embedded = &props[i]
		case 0x5678:
			heapRef = &props[i]
		}
	}
	require.NotNil(t, embedded)
	require.NotNil(t, heapRef)
	assert.Equal(t, PropInt32, embedded.Type)
	assert.Equal(t, []byte{0xAB, 0x00, 0x00, 0x00}, embedded.Data)
	assert.Equal(t, []byte{0x48, 0x00, 0x49, 0x00}, heapRef.Data)
}

func TestResolvePropRefSubnode(t *testing.T) {
	ref := uint32(4000) // > embeddedRefThreshold (3580)
	subID := (ref >> 5) & 0x07ffffff
	descriptors := map[uint32]DescriptorEntry{subID: {DataBID: 0x99}}
	called := false
	subnodeRead := func(d DescriptorEntry) ([]byte, error) {
		called = true
		assert.EqualValues(t, 0x99, d.DataBID)
		return []byte("subnode-data"), nil
	}
	data, err := resolvePropRef(PropBinary, ref, Heap{}, descriptors, subnodeRead)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "subnode-data", string(data))
}
