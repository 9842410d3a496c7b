package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptBTH is returned when a BTree-on-Heap header or page can't be
// parsed.
var ErrCorruptBTH = errors.New("ost: corrupt bth")

const bthSignature = 0xB5

// bthHeader is the fixed header allocation of a BTree-on-Heap.
type bthHeader struct {
	keySize   int
	entrySize int
	levels    int
	rootHID   int
}

func parseBTHHeader(b []byte) (bthHeader, error) {
	if len(b) < 8 || b[0] != bthSignature {
		return bthHeader{}, fmt.Errorf("%w: bad bth signature", ErrCorruptBTH)
	}
	return bthHeader{
		keySize:   int(b[1]),
		entrySize: int(b[2]),
		levels:    int(b[3]),
		rootHID:   int(buf.U32LE(b[4:])),
	}, nil
}

// hidAllocIndex extracts the 1-based heap allocation index from a raw HID
// value (the low-order bits below the 5-bit index-within-allocation
// reserved field).
func hidAllocIndex(hid int) int {
	return hid >> 5
}

// LoadBTHEntries walks a BTree-on-Heap from its header allocation (given by
// index into heap.Allocs) and returns every leaf entry's raw
// (keySize+entrySize)-byte record, in on-disk order.
func LoadBTHEntries(h Heap, headerAllocIndex int) ([][]byte, int, int, error) {
	headerAlloc, ok := h.Alloc(headerAllocIndex)
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: header allocation %d missing", ErrCorruptBTH, headerAllocIndex)
	}
	hdr, err := parseBTHHeader(headerAlloc)
	if err != nil {
		return nil, 0, 0, err
	}

	recSize := hdr.keySize + hdr.entrySize
	var records [][]byte
	var walk func(allocIdx, level int) error
	walk = func(allocIdx, level int) error {
		page, ok := h.Alloc(allocIdx)
		if !ok {
			return nil
		}
		if level == 0 {
			for pos := 0; pos+recSize <= len(page); pos += recSize {
				records = append(records, page[pos:pos+recSize])
			}
			return nil
		}
		branchRec := hdr.keySize + 4
		for pos := 0; pos+branchRec <= len(page); pos += branchRec {
			childHID := int(buf.U32LE(page[pos+hdr.keySize:]))
			if err := walk(hidAllocIndex(childHID), level-1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(hidAllocIndex(hdr.rootHID), hdr.levels); err != nil {
		return nil, 0, 0, err
	}
	return records, hdr.keySize, hdr.entrySize, nil
}
