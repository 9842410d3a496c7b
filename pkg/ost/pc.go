package ost

import (
	"encoding/binary"

	"github.com/forensic-go/windecode/internal/buf"
)

// PropType enumerates the OST property type codes this reader decodes.
type PropType uint16

const (
	PropInt16       PropType = 0x0002
	PropInt32       PropType = 0x0003
	PropFloat32     PropType = 0x0004
	PropFloat64     PropType = 0x0005
	PropCurrency    PropType = 0x0006
	PropFloatTime   PropType = 0x0007
	PropErrorCode   PropType = 0x000A
	PropBool        PropType = 0x000B
	PropInt64       PropType = 0x0014
	PropString8     PropType = 0x001E
	PropTime        PropType = 0x0040
	PropGUID        PropType = 0x0048
	PropServerID    PropType = 0x00FB
	PropRestrict    PropType = 0x00FD
	PropRuleAction  PropType = 0x00FE
	PropBinary      PropType = 0x0102
	PropString      PropType = 0x001F
	PropObject      PropType = 0x000D
	PropUnspecified PropType = 0x0000
	PropNull        PropType = 0x0001

	multiValueBit PropType = 0x1000
)

func (t PropType) isMulti() bool { return t&multiValueBit != 0 }

// PropEntry is one decoded property: its raw value bytes (after following
// any heap/subnode indirection) and its declared type.
type PropEntry struct {
	ID   uint16
	Type PropType
	Data []byte
}

// embeddedRefThreshold is the boundary past which a PC entry's 4-byte ref
// is a subnode id rather than a heap index.
const embeddedRefThreshold = 3580

// ParsePropertyContext decodes a Property Context: the BTH rooted in the
// node's heap, resolving each entry's ref against the heap's allocation
// table or, for large values, a subnode descriptor.
func ParsePropertyContext(heap Heap, descriptors map[uint32]DescriptorEntry, subnodeRead func(DescriptorEntry) ([]byte, error)) ([]PropEntry, error) {
	records, keySize, entrySize, err := LoadBTHEntries(heap, hidAllocIndex(heap.HIDRoot))
	if err != nil {
		return nil, err
	}
	_ = keySize

	var out []PropEntry
	for _, rec := range records {
		if len(rec) < 2+entrySize || entrySize < 6 {
			continue
		}
		id := binary.LittleEndian.Uint16(rec[0:2])
		propType := PropType(binary.LittleEndian.Uint16(rec[2:4]))
		ref := buf.U32LE(rec[4:8])

		data, err := resolvePropRef(propType, ref, heap, descriptors, subnodeRead)
		if err != nil {
			continue // a single malformed property is skipped, not fatal
		}
		out = append(out, PropEntry{ID: id, Type: propType, Data: data})
	}
	return out, nil
}

func resolvePropRef(t PropType, ref uint32, heap Heap, descriptors map[uint32]DescriptorEntry, subnodeRead func(DescriptorEntry) ([]byte, error)) ([]byte, error) {
	switch t &^ multiValueBit {
	case PropInt16, PropInt32, PropFloat32, PropErrorCode, PropBool:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, ref)
		return b, nil
	}

	blockIndex := ref >> 19
	allocIndex := int((ref&0x7ffe0)>>5) - 1
	_ = blockIndex

	if int(ref) > embeddedRefThreshold {
		if subnodeRead != nil {
			subID := (ref >> 5) & 0x07ffffff
			if d, ok := descriptors[subID]; ok {
				return subnodeRead(d)
			}
		}
	}

	data, ok := heap.Alloc(allocIndex + 1)
	if !ok {
		return nil, ErrCorruptHeap
	}
	return data, nil
}
