// Package ese implements an Extensible Storage Engine (EDB) database reader:
// header validation, the Catalog/MSysObjects bootstrap, page B-tree
// traversal, row layout parsing (fixed/variable/tagged sections), multi-value
// expansion, the compression gate heuristic, and long-value reassembly.
package ese

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrBadHeader is returned when the 668-byte EDB header's magic does not
// match.
var ErrBadHeader = errors.New("ese: not an EDB header")

const (
	// HeaderSize is the standard Microsoft EDB header size.
	HeaderSize = 668

	headerMagicOffset       = 0x04
	headerMagic             = 0xEFCDAB89
	headerVersionOffset     = 0x08
	headerFileTypeOffset    = 0x0C
	headerPageSizeOffset    = 0xEC // introduced in later header revisions; 0 means 4096 (pre-Vista default is actually handled below)
	headerFormatRevisionOff = 0x10
)

const defaultPageSize = 4096

// Header is the parsed subset of the 668-byte EDB header needed to walk
// tables.
type Header struct {
	PageSize uint32
}

// ParseHeader validates the magic signature and determines the page size
// (8 KiB or 32 KiB databases declare it explicitly; older 4 KiB databases
// leave the field zero).
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header too small (%d bytes)", ErrBadHeader, len(b))
	}
	magic := buf.U32LE(b[headerMagicOffset:])
	if magic != headerMagic {
		return Header{}, fmt.Errorf("%w: magic 0x%08X", ErrBadHeader, magic)
	}
	pageSize := buf.U32LE(b[headerPageSizeOffset:])
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	return Header{PageSize: pageSize}, nil
}

// PageOffset returns the absolute byte offset of logical page number pg.
// Logical page 1 is the first page following the two header pages (the
// primary header and its shadow copy), both sized to one page.
func (h Header) PageOffset(pg uint32) int64 {
	return int64(pg+1) * int64(h.PageSize)
}
