package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptPage is returned when a B-tree page's entry table or trailer
// cannot be parsed.
var ErrCorruptPage = errors.New("ost: corrupt btree page")

const (
	btPageSize       = 512
	btEntryAreaSize  = 488
	btPageTrailerLen = 16
)

// btPage is one page of either the Node B-tree or the Block B-tree. Layout
// follows the documented Unicode-format BTPAGE: an entries region, a
// 4-byte (cEnt, cEntMax, cbEnt, cLevel) descriptor, 4 bytes of padding, and
// a 16-byte trailer (this reader targets the Unicode64 variants; ANSI-32's
// narrower entries are out of scope, see the project notes).
type btPage struct {
	level   uint8
	entries [][]byte // each entrySize bytes, cEnt of them
}

func parseBTPage(b []byte) (btPage, error) {
	if len(b) < btPageSize {
		return btPage{}, fmt.Errorf("%w: page too small", ErrCorruptPage)
	}
	cEnt := int(b[btEntryAreaSize])
	entrySize := int(b[btEntryAreaSize+2])
	level := b[btEntryAreaSize+3]
	if entrySize == 0 || cEnt*entrySize > btEntryAreaSize {
		return btPage{}, fmt.Errorf("%w: bad entry table (cEnt=%d cbEnt=%d)", ErrCorruptPage, cEnt, entrySize)
	}
	p := btPage{level: level}
	for i := 0; i < cEnt; i++ {
		p.entries = append(p.entries, b[i*entrySize:(i+1)*entrySize])
	}
	return p, nil
}

// NodeEntry is one leaf of the Node B-tree: a node id mapped to its data
// block and, if present, a descriptor (subnode) block.
type NodeEntry struct {
	NID       uint32
	DataBID   uint64
	SubBID    uint64
	ParentNID uint32
}

// BlockEntry is one leaf of the Block B-tree: a block id's physical
// location, declared size, and reference count.
type BlockEntry struct {
	BID      uint64
	Offset   uint64
	Size     uint16
	RefCount uint16
}

// PageSource fetches a page-sized buffer at a raw file offset, abstracting
// over a plain os.File or an NTFS attribute stream.
type PageSource func(offset int64, n int) ([]byte, error)

// LoadNodeBTree walks the Node B-tree from its root and returns every leaf
// entry indexed by node id.
func LoadNodeBTree(src PageSource, root uint64) (map[uint32]NodeEntry, error) {
	out := map[uint32]NodeEntry{}
	visited := map[uint64]bool{}
	var walk func(bid uint64) error
	walk = func(bid uint64) error {
		if visited[bid] {
			return nil
		}
		visited[bid] = true
		raw, err := src(int64(bid), btPageSize)
		if err != nil {
			return err
		}
		page, err := parseBTPage(raw)
		if err != nil {
			return err
		}
		for _, e := range page.entries {
			if page.level == 0 {
				if len(e) < 24 {
					continue
				}
				nid := buf.U32LE(e)
				out[nid] = NodeEntry{
					NID:     nid,
					DataBID: buf.U64LE(e[8:]),
					SubBID:  buf.U64LE(e[16:]),
				}
				continue
			}
			if len(e) < 16 {
				continue
			}
			child := buf.U64LE(e[8:])
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadBlockBTree walks the Block B-tree from its root and returns every
// leaf entry indexed by block id.
func LoadBlockBTree(src PageSource, root uint64) (map[uint64]BlockEntry, error) {
	out := map[uint64]BlockEntry{}
	visited := map[uint64]bool{}
	var walk func(bid uint64) error
	walk = func(bid uint64) error {
		if visited[bid] {
			return nil
		}
		visited[bid] = true
		raw, err := src(int64(bid), btPageSize)
		if err != nil {
			return err
		}
		page, err := parseBTPage(raw)
		if err != nil {
			return err
		}
		for _, e := range page.entries {
			if page.level == 0 {
				if len(e) < 20 {
					continue
				}
				id := buf.U64LE(e)
				out[id] = BlockEntry{
					BID:      id,
					Offset:   buf.U64LE(e[8:]),
					Size:     buf.U16LE(e[16:]),
					RefCount: buf.U16LE(e[18:]),
				}
				continue
			}
			if len(e) < 16 {
				continue
			}
			child := buf.U64LE(e[8:])
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}
