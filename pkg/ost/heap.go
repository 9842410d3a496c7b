package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptHeap is returned when a Heap-on-Node's allocation table can't
// be parsed.
var ErrCorruptHeap = errors.New("ost: corrupt heap")

// Heap root type bytes, read from the heap header.
const (
	HeapRootPropertyContext = 0xBC
	HeapRootTableContext    = 0x7C
)

const heapHeaderSize = 8

// Heap is a parsed Heap-on-Node: a sequence of allocations addressable by
// a 1-based index (allocation 0 is the heap's own internal HID index page
// and is skipped by callers).
type Heap struct {
	RootType byte
	HIDRoot  int      // HID of the BTH/TC header allocation, within this heap
	Allocs   [][]byte
}

// ParseHeap reads the Heap-on-Node header from a block's payload and
// splits the rest into allocations using the allocation table's
// (count+1) 16-bit offsets.
func ParseHeap(payload []byte) (Heap, error) {
	if len(payload) < heapHeaderSize {
		return Heap{}, fmt.Errorf("%w: payload too small", ErrCorruptHeap)
	}
	tableOffset := buf.U16LE(payload[0:])
	rootType := payload[3]
	hidRoot := int(buf.U32LE(payload[4:]))

	if int(tableOffset)+2 > len(payload) {
		return Heap{}, fmt.Errorf("%w: allocation table out of range", ErrCorruptHeap)
	}

	// The allocation count isn't carried directly; it's inferred from how
	// many 16-bit offsets fit before the table runs into the end of the
	// block (each entry after the first closes the previous allocation).
	var offsets []uint16
	for pos := int(tableOffset); pos+2 <= len(payload); pos += 2 {
		offsets = append(offsets, buf.U16LE(payload[pos:]))
		if int(buf.U16LE(payload[pos:])) >= len(payload) {
			break
		}
	}
	if len(offsets) < 2 {
		return Heap{RootType: rootType, HIDRoot: hidRoot}, nil
	}

	h := Heap{RootType: rootType, HIDRoot: hidRoot}
	for i := 1; i < len(offsets); i++ {
		start, end := offsets[i-1], offsets[i]
		if int(end) > len(payload) || start > end {
			break
		}
		h.Allocs = append(h.Allocs, payload[start:end])
	}
	return h, nil
}

// Alloc returns the 1-based allocation by index (matching the HID
// "allocation_index" numbering used by Property Context refs).
func (h Heap) Alloc(i int) ([]byte, bool) {
	idx := i - 1
	if idx < 0 || idx >= len(h.Allocs) {
		return nil, false
	}
	return h.Allocs[idx], true
}
