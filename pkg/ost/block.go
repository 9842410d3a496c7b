package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrBlockNotFound is returned when a block id is absent from the Block
// B-tree even after the documented id-1 fallback.
var ErrBlockNotFound = errors.New("ost: block not found")

// ErrBlockCycle guards against an internal block chain pointing back to an
// ancestor.
var ErrBlockCycle = errors.New("ost: cyclic block chain")

const (
	blockTypeInternal = 0x01
	xblockLevel       = 1
	xxblockLevel      = 2
)

// Store bundles the B-trees and raw-byte access needed to resolve a block
// id to its reassembled payload.
type Store struct {
	Src     PageSource
	BlockBT map[uint64]BlockEntry
}

// lookupBlock resolves a block id to its BlockEntry, trying id-1 once if
// the exact id is absent (an off-by-one observed in some OST variants).
func (s Store) lookupBlock(id uint64) (BlockEntry, error) {
	if e, ok := s.BlockBT[id]; ok {
		return e, nil
	}
	if id > 0 {
		if e, ok := s.BlockBT[id-1]; ok {
			return e, nil
		}
	}
	return BlockEntry{}, fmt.Errorf("%w: id %d", ErrBlockNotFound, id)
}

// ReadBlock returns the reassembled payload for a block id, recursing
// through XBlock/XXBlock chains as needed.
func (s Store) ReadBlock(id uint64) ([]byte, error) {
	return s.readBlock(id, map[uint64]bool{})
}

func (s Store) readBlock(id uint64, visited map[uint64]bool) ([]byte, error) {
	if visited[id] {
		return nil, fmt.Errorf("%w: block %d", ErrBlockCycle, id)
	}
	visited[id] = true

	entry, err := s.lookupBlock(id)
	if err != nil {
		return nil, err
	}
	raw, err := s.Src(int64(entry.Offset), int(entry.Size))
	if err != nil {
		return nil, fmt.Errorf("ost: read block %d: %w", id, err)
	}

	if len(raw) < 2 || raw[0] != blockTypeInternal {
		return raw, nil // External block: raw bytes are the payload.
	}

	level := raw[1]
	if level != xblockLevel && level != xxblockLevel {
		return raw, nil
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("ost: truncated internal block %d", id)
	}
	count := int(buf.U16LE(raw[2:]))
	pos := 8
	var out []byte
	for i := 0; i < count; i++ {
		if pos+8 > len(raw) {
			break
		}
		childID := buf.U64LE(raw[pos:])
		pos += 8
		child, err := s.readBlock(childID, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, child...)
	}
	return out, nil
}

// DescriptorEntry maps one subnode id to its data and (optional) nested
// descriptor block, used to resolve overflowed property values.
type DescriptorEntry struct {
	DataBID       uint64
	DescriptorBID uint64
}

// ParseDescriptorBlock decodes a descriptor (subnode) block's External
// payload into a map keyed by subnode id. Layout mirrors an NBT leaf page:
// fixed-width (nid, dataBID, subBID) triples.
func ParseDescriptorBlock(payload []byte) map[uint32]DescriptorEntry {
	out := map[uint32]DescriptorEntry{}
	const recSize = 24
	if len(payload) < 8 {
		return out
	}
	count := int(buf.U32LE(payload))
	pos := 8
	for i := 0; i < count && pos+recSize <= len(payload); i++ {
		rec := payload[pos : pos+recSize]
		nid := buf.U32LE(rec)
		out[nid] = DescriptorEntry{
			DataBID:       buf.U64LE(rec[8:]),
			DescriptorBID: buf.U64LE(rec[16:]),
		}
		pos += recSize
	}
	return out
}
