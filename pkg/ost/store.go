package ost

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNodeNotFound is returned when a node id is absent from the Node
// B-tree. Callers treat this as not-found rather than corruption: stale
// node references appear in otherwise healthy stores.
var ErrNodeNotFound = errors.New("ost: node not found")

// ErrWrongContext is returned when a node's heap root type doesn't match
// the context kind the caller asked for.
var ErrWrongContext = errors.New("ost: unexpected heap root type")

// Reader reconstructs folders, messages, and attachments from an open PFF
// file. Both B-tree maps are loaded once at Open and immutable afterwards.
type Reader struct {
	store Store
	nodes map[uint32]NodeEntry
}

// Open walks the Node and Block B-trees from the header's roots and
// returns a Reader over them.
func Open(src PageSource, h Header) (*Reader, error) {
	nodes, err := LoadNodeBTree(src, h.NBTRoot)
	if err != nil {
		return nil, fmt.Errorf("ost: node btree: %w", err)
	}
	blocks, err := LoadBlockBTree(src, h.BBTRoot)
	if err != nil {
		return nil, fmt.Errorf("ost: block btree: %w", err)
	}
	return &Reader{
		store: Store{Src: src, BlockBT: blocks},
		nodes: nodes,
	}, nil
}

// Node returns the B-tree entry for a node id.
func (r *Reader) Node(nid uint32) (NodeEntry, bool) {
	e, ok := r.nodes[nid]
	return e, ok
}

// nodePayload reads a node's data block and, when the node carries a
// descriptor block, its subnode map.
func (r *Reader) nodePayload(e NodeEntry) ([]byte, map[uint32]DescriptorEntry, error) {
	payload, err := r.store.ReadBlock(e.DataBID)
	if err != nil {
		return nil, nil, err
	}
	var descriptors map[uint32]DescriptorEntry
	if e.SubBID != 0 {
		sub, err := r.store.ReadBlock(e.SubBID)
		if err != nil {
			return nil, nil, err
		}
		descriptors = ParseDescriptorBlock(sub)
	}
	return payload, descriptors, nil
}

func (r *Reader) subnodeRead(d DescriptorEntry) ([]byte, error) {
	return r.store.ReadBlock(d.DataBID)
}

// PropertyContext loads and decodes the PC stored under a node id.
func (r *Reader) PropertyContext(nid uint32) ([]PropEntry, error) {
	e, ok := r.nodes[nid]
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrNodeNotFound, nid)
	}
	payload, descriptors, err := r.nodePayload(e)
	if err != nil {
		return nil, err
	}
	heap, err := ParseHeap(payload)
	if err != nil {
		return nil, err
	}
	if heap.RootType != HeapRootPropertyContext {
		return nil, fmt.Errorf("%w: node %#x root %#x, want PC", ErrWrongContext, nid, heap.RootType)
	}
	return ParsePropertyContext(heap, descriptors, r.subnodeRead)
}

// TableRows loads the TC stored under a node id and returns its column
// layout plus every packed row.
func (r *Reader) TableRows(nid uint32) (TableContext, [][]byte, error) {
	e, ok := r.nodes[nid]
	if !ok {
		return TableContext{}, nil, fmt.Errorf("%w: %#x", ErrNodeNotFound, nid)
	}
	payload, _, err := r.nodePayload(e)
	if err != nil {
		return TableContext{}, nil, err
	}
	return tableRowsFromPayload(payload, nid)
}

func tableRowsFromPayload(payload []byte, nid uint32) (TableContext, [][]byte, error) {
	heap, err := ParseHeap(payload)
	if err != nil {
		return TableContext{}, nil, err
	}
	if heap.RootType != HeapRootTableContext {
		return TableContext{}, nil, fmt.Errorf("%w: node %#x root %#x, want TC", ErrWrongContext, nid, heap.RootType)
	}
	tc, err := ParseTableContext(heap)
	if err != nil {
		return TableContext{}, nil, err
	}
	return tc, tc.Rows(heap), nil
}

// Folder reconstructs the folder rooted at nid: its own PC plus the
// hierarchy and contents tables of its family. A SearchFolder node
// dispatches to the search contents table instead; an empty or absent
// table leaves the corresponding slice empty rather than failing.
func (r *Reader) Folder(nid uint32) (Folder, error) {
	pc, err := r.PropertyContext(nid)
	if err != nil {
		return Folder{}, err
	}
	fam := NodeFamily(nid) << 5

	if NodeType(nid) == NodeSearchFolder {
		contents, crows, err := r.TableRows(fam | uint32(NodeSearchContentsTbl))
		if err != nil && !errors.Is(err, ErrNodeNotFound) {
			return Folder{}, err
		}
		f := BuildFolder(pc, TableContext{}, contents, nil, crows)
		f.IsSearchFolder = true
		return f, nil
	}

	hierarchy, hrows, err := r.TableRows(fam | uint32(NodeHierarchyTable))
	if err != nil && !errors.Is(err, ErrNodeNotFound) {
		return Folder{}, err
	}
	contents, crows, err := r.TableRows(fam | uint32(NodeContentsTable))
	if err != nil && !errors.Is(err, ErrNodeNotFound) {
		return Folder{}, err
	}
	return BuildFolder(pc, hierarchy, contents, hrows, crows), nil
}

// Message reconstructs the message at nid: its PC plus the recipient and
// attachment tables found among its subnode descriptors.
func (r *Reader) Message(nid uint32) (Message, error) {
	e, ok := r.nodes[nid]
	if !ok {
		return Message{}, fmt.Errorf("%w: %#x", ErrNodeNotFound, nid)
	}
	payload, descriptors, err := r.nodePayload(e)
	if err != nil {
		return Message{}, err
	}
	heap, err := ParseHeap(payload)
	if err != nil {
		return Message{}, err
	}
	if heap.RootType != HeapRootPropertyContext {
		return Message{}, fmt.Errorf("%w: node %#x root %#x, want PC", ErrWrongContext, nid, heap.RootType)
	}
	pc, err := ParsePropertyContext(heap, descriptors, r.subnodeRead)
	if err != nil {
		return Message{}, err
	}

	var recipients []Recipient
	var attachments []Attachment
	for _, subID := range sortedKeys(descriptors) {
		d := descriptors[subID]
		switch NodeType(subID) {
		case NodeRecipientTable:
			tc, rows, err := r.subnodeTableRows(d, subID)
			if err != nil {
				continue // a malformed table loses its rows, not the message
			}
			for _, row := range rows {
				recipients = append(recipients, BuildRecipient(tc, row))
			}
		case NodeAttachmentTable:
			tc, rows, err := r.subnodeTableRows(d, subID)
			if err != nil {
				continue
			}
			attachments = append(attachments, r.attachmentsFromRows(tc, rows, descriptors)...)
		}
	}
	return BuildMessage(pc, recipients, attachments), nil
}

func (r *Reader) subnodeTableRows(d DescriptorEntry, subID uint32) (TableContext, [][]byte, error) {
	payload, err := r.store.ReadBlock(d.DataBID)
	if err != nil {
		return TableContext{}, nil, err
	}
	return tableRowsFromPayload(payload, subID)
}

// attachmentsFromRows resolves each attachment-table row to its Attachment
// subnode's PC within the same descriptor map.
func (r *Reader) attachmentsFromRows(tc TableContext, rows [][]byte, descriptors map[uint32]DescriptorEntry) []Attachment {
	nidCol, ok := findColumn(tc, PidTagLtpRowID)
	if !ok {
		return nil
	}
	var out []Attachment
	for _, row := range rows {
		b, present := CellBytes(row, nidCol, tc.CEBSize())
		if !present || len(b) < 4 {
			continue
		}
		attNID := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		d, ok := descriptors[attNID]
		if !ok {
			continue
		}
		payload, err := r.store.ReadBlock(d.DataBID)
		if err != nil {
			continue
		}
		heap, err := ParseHeap(payload)
		if err != nil || heap.RootType != HeapRootPropertyContext {
			continue
		}
		var nested map[uint32]DescriptorEntry
		if d.DescriptorBID != 0 {
			if sub, err := r.store.ReadBlock(d.DescriptorBID); err == nil {
				nested = ParseDescriptorBlock(sub)
			}
		}
		pc, err := ParsePropertyContext(heap, nested, r.subnodeRead)
		if err != nil {
			continue
		}
		out = append(out, BuildAttachment(pc))
	}
	return out
}

// NameIDMap loads the store's name-to-id map from its well-known node.
func (r *Reader) NameIDMap() (map[uint16]NamedProp, error) {
	pc, err := r.PropertyContext(NameIDNode)
	if err != nil {
		return nil, err
	}
	return ParseNameIDMap(pc), nil
}

func sortedKeys(m map[uint32]DescriptorEntry) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
