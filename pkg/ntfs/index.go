package ntfs

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/forensic-go/windecode/internal/buf"
)

const (
	idxRootEntryOffOff  = 0x10 // within INDEX_ROOT content: header starts at 0x10
	idxHdrFirstEntryOff = 0x00 // relative to INDEX_HEADER start
	idxHdrTotalSizeOff  = 0x04
	idxHdrFlagsOff      = 0x0C

	idxEntryFileRefOff = 0x00
	idxEntryLengthOff  = 0x08
	idxEntryKeyLenOff  = 0x0A
	idxEntryFlagsOff   = 0x0C
	idxEntryKeyDataOff = 0x10

	idxEntryFlagSubNode = 0x01
	idxEntryFlagLast    = 0x02
)

// IndexEntry is one decoded $INDEX_ROOT/$INDEX_ALLOCATION B-tree entry
// describing a single filename-namespace record.
type IndexEntry struct {
	FileRef    FileReference
	Name       string
	NameSpace  uint8
	HasSubNode bool
	SubNodeVCN int64
	IsLast     bool
}

// ParseIndexEntries walks a sequence of index entries starting at off inside
// b (an INDEX_ROOT content buffer or one INDEX_ALLOCATION node's entry
// area), stopping at the "last entry" flag.
func ParseIndexEntries(b []byte, off int) ([]IndexEntry, error) {
	var out []IndexEntry
	for off+idxEntryKeyDataOff <= len(b) {
		length := int(buf.U16LE(b[off+idxEntryLengthOff:]))
		if length < idxEntryKeyDataOff || off+length > len(b) {
			return out, fmt.Errorf("ntfs: index entry length %d out of bounds at %d", length, off)
		}
		flags := buf.U32LE(b[off+idxEntryFlagsOff:])
		entry := IndexEntry{
			IsLast:     flags&idxEntryFlagLast != 0,
			HasSubNode: flags&idxEntryFlagSubNode != 0,
		}
		ref := buf.U64LE(b[off+idxEntryFileRefOff:])
		entry.FileRef = FileReference{RecordNumber: ref & 0x0000FFFFFFFFFFFF, Sequence: uint16(ref >> 48)}

		if !entry.IsLast {
			keyLen := int(buf.U16LE(b[off+idxEntryKeyLenOff:]))
			key, ok := buf.Slice(b, off+idxEntryKeyDataOff, keyLen)
			if !ok {
				return out, fmt.Errorf("ntfs: index entry key out of bounds")
			}
			name, ns, err := parseFileNameKey(key)
			if err != nil {
				return out, err
			}
			entry.Name = name
			entry.NameSpace = ns
		}

		if entry.HasSubNode {
			vcnOff := off + length - 8
			if vcnOff >= 0 && vcnOff+8 <= len(b) {
				entry.SubNodeVCN = int64(buf.U64LE(b[vcnOff:]))
			}
		}

		out = append(out, entry)
		if entry.IsLast {
			break
		}
		off += length
	}
	return out, nil
}

// parseFileNameKey decodes the $FILE_NAME attribute content embedded as an
// index key: parent ref (8) + four FILETIMEs (32) + alloc/real size (16) +
// flags (4) + ea/reparse (4) + name length (1) + namespace (1) + name.
func parseFileNameKey(key []byte) (name string, namespace uint8, err error) {
	const nameLenOff = 0x40
	const namespaceOff = 0x41
	const nameOff = 0x42
	if len(key) < nameOff {
		return "", 0, fmt.Errorf("ntfs: $FILE_NAME key too short (%d bytes)", len(key))
	}
	nameLen := int(key[nameLenOff])
	namespace = key[namespaceOff]
	nameBytes, ok := buf.Slice(key, nameOff, nameLen*2)
	if !ok {
		return "", 0, fmt.Errorf("ntfs: $FILE_NAME name out of bounds")
	}
	u := make([]uint16, 0, nameLen)
	for i := 0; i+1 < len(nameBytes); i += 2 {
		u = append(u, uint16(nameBytes[i])|uint16(nameBytes[i+1])<<8)
	}
	return string(utf16.Decode(u)), namespace, nil
}

// FileNameNamespace values; DOS (short-name) entries are skipped during
// path resolution.
const (
	NamespacePosix       = 0
	NamespaceWin32       = 1
	NamespaceDOS         = 2
	NamespaceWin32AndDOS = 3
)

// UpCaseTable holds the volume's $UpCase attribute content: a 65536-entry
// UTF-16 case-folding table used for case-insensitive filename comparison.
type UpCaseTable []uint16

// ParseUpCaseTable decodes a raw $UpCase stream (a flat array of uint16 LE
// values, one per UTF-16 code unit) into an UpCaseTable.
func ParseUpCaseTable(b []byte) UpCaseTable {
	t := make(UpCaseTable, len(b)/2)
	for i := range t {
		t[i] = buf.U16LE(b[i*2:])
	}
	return t
}

// Upper case-folds a single UTF-16 code unit using the table, falling back
// to ASCII case-folding for code units beyond the table's range.
func (t UpCaseTable) Upper(c uint16) uint16 {
	if int(c) < len(t) {
		return t[c]
	}
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// Equal reports whether a and b are equal under the volume's up-casing
// rule, comparing UTF-16 code unit by code unit.
func (t UpCaseTable) Equal(a, b string) bool {
	au, bu := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(au) != len(bu) {
		return false
	}
	for i := range au {
		if t.Upper(au[i]) != t.Upper(bu[i]) {
			return false
		}
	}
	return true
}

// IndexReader resolves a single path component against a directory's
// $INDEX_ROOT entries and, if present, its $INDEX_ALLOCATION B-tree.
type IndexReader struct {
	UpCase       UpCaseTable
	RootEntries  []IndexEntry
	AllocReader  io.ReadSeeker // nil if the directory has no $INDEX_ALLOCATION
	IndexRecSize int
}

// FindChild searches the directory's B-tree for name, skipping DOS-namespace
// entries, and returns the matching file reference.
func (r *IndexReader) FindChild(name string) (FileReference, bool, error) {
	return r.search(r.RootEntries, name)
}

func (r *IndexReader) search(entries []IndexEntry, name string) (FileReference, bool, error) {
	for _, e := range entries {
		if !e.IsLast && e.NameSpace != NamespaceDOS && r.UpCase.Equal(e.Name, name) {
			return e.FileRef, true, nil
		}
		if e.HasSubNode && r.AllocReader != nil {
			childEntries, err := r.readAllocationNode(e.SubNodeVCN)
			if err != nil {
				return FileReference{}, false, err
			}
			if ref, found, err := r.search(childEntries, name); found || err != nil {
				return ref, found, err
			}
		}
	}
	return FileReference{}, false, nil
}

const (
	indxHeaderFixupOff = 0x04
	indxUSACountOff    = 0x06
	indxEntriesOff     = 0x18 // INDEX_HEADER begins after the INDX record header
)

func (r *IndexReader) readAllocationNode(vcn int64) ([]IndexEntry, error) {
	if r.IndexRecSize == 0 {
		return nil, fmt.Errorf("ntfs: index record size unknown")
	}
	node := make([]byte, r.IndexRecSize)
	if _, err := r.AllocReader.Seek(vcn*int64(r.IndexRecSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("ntfs: seek index allocation: %w", err)
	}
	if _, err := io.ReadFull(r.AllocReader, node); err != nil {
		return nil, fmt.Errorf("ntfs: read index allocation node: %w", err)
	}
	if !bytes.HasPrefix(node, []byte("INDX")) {
		return nil, fmt.Errorf("ntfs: index allocation node bad signature")
	}
	if err := applyFixup(node, 512); err != nil {
		return nil, fmt.Errorf("ntfs: index allocation fixup: %w", err)
	}
	// The INDEX_HEADER nested inside an INDX record starts at offset 0x18,
	// mirroring STANDARD_INDEX_HEADER's own first-entry-offset field, which
	// is itself relative to that point.
	firstEntryRel := int(buf.U32LE(node[indxEntriesOff+idxHdrFirstEntryOff:]))
	return ParseIndexEntries(node, indxEntriesOff+firstEntryRel)
}
