// Package ost implements an Outlook OST/PST ("PFF") reader: header
// detection, the Node B-tree and Block B-tree, Heap-on-Node and
// BTree-on-Heap allocation, Property Context and Table Context row
// decoding, and folder/message/attachment reconstruction.
package ost

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrBadHeader is returned when the leading magic doesn't match "!BDN".
var ErrBadHeader = errors.New("ost: not a PFF file")

// Format identifies the on-disk layout variant; only offsets, field
// widths, and checksum widths differ between them.
type Format uint8

const (
	FormatANSI32         Format = iota // pre-Outlook-2003 32-bit
	FormatUnicode64                    // standard 64-bit Unicode store
	FormatUnicode64_4k                 // large-header variant, 4 KiB pages
)

const (
	headerMagicOffset  = 0x00
	headerFileTypeOff  = 0x08
	headerRootOffANSI  = 0xC4
	headerRootOffU64   = 0x224
	headerRootOffU64_4 = 0x224
)

// FileType distinguishes an OST (cached mailbox replica) from a PST
// (standalone store); both share the PFF container format.
type FileType uint8

const (
	FileTypePST FileType = 0x17
	FileTypeOST FileType = 0x0F
)

// Header is the parsed subset of the PFF file header needed to locate the
// two root B-trees.
type Header struct {
	Type     FileType
	Format   Format
	PageSize int
	NBTRoot  uint64
	BBTRoot  uint64
}

// ParseHeader validates the magic and format byte and locates the Node/Block
// B-tree roots for the detected variant.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 0x230 {
		return Header{}, fmt.Errorf("%w: header too small (%d bytes)", ErrBadHeader, len(b))
	}
	if string(b[headerMagicOffset:headerMagicOffset+4]) != "!BDN" {
		return Header{}, fmt.Errorf("%w: bad magic", ErrBadHeader)
	}
	ft := FileType(b[headerFileTypeOff])
	if ft != FileTypePST && ft != FileTypeOST {
		return Header{}, fmt.Errorf("%w: unknown file type 0x%02X", ErrBadHeader, b[headerFileTypeOff])
	}

	// Byte 0x0A carries the "ndVersion"/format discriminant: values up to
	// 0x0E = ANSI-32 (pre-2003), 0x15 = Unicode-64 with 512-byte pages, and
	// any other value is taken as the 4k-page Unicode-64 variant (which keeps
	// the same field layout and only changes the block/page size used by the
	// B-trees).
	formatByte := b[0x0A]
	var format Format
	var rootOff int
	var pageSize int
	switch {
	case formatByte <= 0x0E:
		format = FormatANSI32
		rootOff = headerRootOffANSI
		pageSize = 512
	case formatByte == 0x15:
		format = FormatUnicode64
		rootOff = headerRootOffU64
		pageSize = 512
	default:
		format = FormatUnicode64_4k
		rootOff = headerRootOffU64_4
		pageSize = 4096
	}

	if rootOff+16 > len(b) {
		return Header{}, fmt.Errorf("%w: truncated root pointers", ErrBadHeader)
	}
	nbtRoot := buf.U64LE(b[rootOff:])
	bbtRoot := buf.U64LE(b[rootOff+8:])

	return Header{Type: ft, Format: format, PageSize: pageSize, NBTRoot: nbtRoot, BBTRoot: bbtRoot}, nil
}
