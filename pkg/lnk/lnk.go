// Package lnk decodes Windows Shell Link ("LNK") files: the 76-byte fixed
// header, an optional shell-item id list, LinkInfo, string data blocks, and
// the extra-data block chain.
package lnk

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/record"
)

var ErrBadHeader = errors.New("lnk: not a shell link file")

const headerSize = 76

var headerGUID = [16]byte{
	0x01, 0x14, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
}

// LinkFlags is the 32-bit flags field at offset 0x14.
type LinkFlags uint32

const (
	HasTargetIDList LinkFlags = 1 << 0
	HasLinkInfo     LinkFlags = 1 << 1
	HasName         LinkFlags = 1 << 2
	HasRelativePath LinkFlags = 1 << 3
	HasWorkingDir   LinkFlags = 1 << 4
	HasArguments    LinkFlags = 1 << 5
	HasIconLocation LinkFlags = 1 << 6
	IsUnicode       LinkFlags = 1 << 7
)

func (f LinkFlags) Has(bit LinkFlags) bool { return f&bit != 0 }

// FileAttributeFlags is the 32-bit target file-attributes field.
type FileAttributeFlags uint32

const (
	AttrReadonly  FileAttributeFlags = 1 << 0
	AttrHidden    FileAttributeFlags = 1 << 1
	AttrSystem    FileAttributeFlags = 1 << 2
	AttrDirectory FileAttributeFlags = 1 << 4
	AttrArchive   FileAttributeFlags = 1 << 5
)

// Header is the fixed 76-byte ShellLinkHeader.
type Header struct {
	Flags          LinkFlags
	FileAttributes FileAttributeFlags
	CreationTime   string
	AccessTime     string
	WriteTime      string
	TargetSize     uint32
	IconIndex      int32
	ShowCommand    uint32
	HotKey         uint16
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, fmt.Errorf("%w: truncated header", ErrBadHeader)
	}
	if buf.U32LE(b) != 0x4C {
		return Header{}, fmt.Errorf("%w: bad header size field", ErrBadHeader)
	}
	var guid [16]byte
	copy(guid[:], b[4:20])
	if guid != headerGUID {
		return Header{}, fmt.Errorf("%w: bad link CLSID", ErrBadHeader)
	}
	return Header{
		Flags:          LinkFlags(buf.U32LE(b[20:])),
		FileAttributes: FileAttributeFlags(buf.U32LE(b[24:])),
		CreationTime:   record.FiletimeToISO8601(buf.U64LE(b[28:])),
		AccessTime:     record.FiletimeToISO8601(buf.U64LE(b[36:])),
		WriteTime:      record.FiletimeToISO8601(buf.U64LE(b[44:])),
		TargetSize:     buf.U32LE(b[52:]),
		IconIndex:      int32(buf.U32LE(b[56:])),
		ShowCommand:    buf.U32LE(b[60:]),
		HotKey:         buf.U16LE(b[64:]),
	}, nil
}

// StringData holds the optional description/relative-path/working-dir/
// arguments/icon-location fields, decoded per IsUnicode.
type StringData struct {
	Description     string
	RelativePath    string
	WorkingDir      string
	CommandLineArgs string
	IconLocation    string
}

// ExtraBlock is one raw extra-data block, keyed by its 4-byte signature
// (console properties, environment variables, known-folder, property
// store, and similar trailing structures).
type ExtraBlock struct {
	Signature uint32
	Data      []byte
}

// Link is a fully decoded shell link file.
type Link struct {
	Header      Header
	IDList      []ShellItem
	LinkInfo    *LinkInfo
	Strings     StringData
	ExtraBlocks []ExtraBlock
}

// Parse decodes a complete .lnk file.
func Parse(b []byte) (Link, error) {
	hdr, err := parseHeader(b)
	if err != nil {
		return Link{}, err
	}
	link := Link{Header: hdr}
	pos := headerSize

	if hdr.Flags.Has(HasTargetIDList) {
		if pos+2 > len(b) {
			return link, fmt.Errorf("%w: truncated id-list size", ErrBadHeader)
		}
		size := int(buf.U16LE(b[pos:]))
		pos += 2
		if pos+size > len(b) {
			return link, fmt.Errorf("%w: truncated id-list", ErrBadHeader)
		}
		link.IDList = ParseIDList(b[pos : pos+size])
		pos += size
	}

	if hdr.Flags.Has(HasLinkInfo) {
		if pos+4 > len(b) {
			return link, fmt.Errorf("%w: truncated link-info size", ErrBadHeader)
		}
		size := int(buf.U32LE(b[pos:]))
		if pos+size > len(b) || size < 4 {
			return link, fmt.Errorf("%w: bad link-info size", ErrBadHeader)
		}
		li, err := parseLinkInfo(b[pos : pos+size])
		if err == nil {
			link.LinkInfo = &li
		}
		pos += size
	}

	unicode := hdr.Flags.Has(IsUnicode)
	readString := func(present bool) string {
		if !present || pos+2 > len(b) {
			return ""
		}
		count := int(buf.U16LE(b[pos:]))
		pos += 2
		width := 1
		if unicode {
			width = 2
		}
		n := count * width
		if pos+n > len(b) {
			pos = len(b)
			return ""
		}
		raw := b[pos : pos+n]
		pos += n
		if unicode {
			return record.UTF16LEToString(raw)
		}
		s, err := record.CodePageToString(raw)
		if err != nil {
			return ""
		}
		return s
	}

	link.Strings = StringData{
		Description:     readString(hdr.Flags.Has(HasName)),
		RelativePath:    readString(hdr.Flags.Has(HasRelativePath)),
		WorkingDir:      readString(hdr.Flags.Has(HasWorkingDir)),
		CommandLineArgs: readString(hdr.Flags.Has(HasArguments)),
		IconLocation:    readString(hdr.Flags.Has(HasIconLocation)),
	}

	for pos+4 <= len(b) {
		blockSize := int(buf.U32LE(b[pos:]))
		if blockSize < 4 {
			break // the terminal block is a 4-byte zero size
		}
		if pos+blockSize > len(b) {
			break
		}
		sig := buf.U32LE(b[pos+4:])
		data := b[pos+8 : pos+blockSize]
		link.ExtraBlocks = append(link.ExtraBlocks, ExtraBlock{Signature: sig, Data: data})
		pos += blockSize
	}

	return link, nil
}

// Extra-data block signatures.
const (
	SigConsoleProps  uint32 = 0xA0000002
	SigEnvironment   uint32 = 0xA0000001
	SigSpecialFolder uint32 = 0xA0000005
	SigDarwinID      uint32 = 0xA0000006
	SigShimLayer     uint32 = 0xA0000008
	SigKnownFolder   uint32 = 0xA000000B
	SigPropertyStore uint32 = 0xA0000009
	SigTrackerProps  uint32 = 0xA0000003
)
