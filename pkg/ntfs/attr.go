package ntfs

import (
	"fmt"
	"unicode/utf16"

	"github.com/forensic-go/windecode/internal/buf"
)

// AttrType is an NTFS attribute type code, e.g. 0x10 STANDARD_INFORMATION.
type AttrType uint32

const (
	AttrStandardInformation AttrType = 0x10
	AttrAttributeList       AttrType = 0x20
	AttrFileName            AttrType = 0x30
	AttrData                AttrType = 0x80
	AttrIndexRoot           AttrType = 0x90
	AttrIndexAllocation     AttrType = 0xA0
	AttrReparsePoint        AttrType = 0xC0
	AttrEnd                 AttrType = 0xFFFFFFFF
)

const (
	attrHeaderTypeOffset     = 0x00
	attrHeaderLenOffset      = 0x04
	attrHeaderNonResidentOff = 0x08
	attrHeaderNameLenOffset  = 0x09
	attrHeaderNameOffOffset  = 0x0A
	attrHeaderFlagsOffset    = 0x0C
	attrHeaderIDOffset       = 0x0E

	attrResContentLenOffset = 0x10
	attrResContentOffOffset = 0x14

	attrNonResStartVCNOffset  = 0x10
	attrNonResLastVCNOffset   = 0x18
	attrNonResRunOffOffset    = 0x20
	attrNonResAllocSizeOffset = 0x28
	attrNonResRealSizeOffset  = 0x30
)

// Attribute is a zero-copy view over one attribute record's header plus
// either its resident content or non-resident run list bytes.
type Attribute struct {
	Type        AttrType
	Name        string
	NonResident bool
	ID          uint16

	// Resident content, or nil if non-resident.
	Content []byte

	// Non-resident fields.
	StartVCN  int64
	LastVCN   int64
	RunList   []byte
	AllocSize uint64
	RealSize  uint64
}

// ParseAttributes walks the attribute records starting at offset start in
// buf, stopping at the 0xFFFFFFFF end marker or buffer exhaustion.
func ParseAttributes(b []byte, start int) ([]Attribute, error) {
	var out []Attribute
	off := start
	for {
		if off+4 > len(b) {
			break
		}
		typ := AttrType(buf.U32LE(b[off:]))
		if typ == AttrEnd || typ == 0 {
			break
		}
		length := buf.U32LE(b[off+attrHeaderLenOffset:])
		if length < 16 || off+int(length) > len(b) {
			return out, fmt.Errorf("ntfs: attribute at %d has bad length %d", off, length)
		}
		rec := b[off : off+int(length)]

		a := Attribute{
			Type:        typ,
			NonResident: rec[attrHeaderNonResidentOff] != 0,
			ID:          buf.U16LE(rec[attrHeaderIDOffset:]),
		}
		nameLen := int(rec[attrHeaderNameLenOffset])
		if nameLen > 0 {
			nameOff := int(buf.U16LE(rec[attrHeaderNameOffOffset:]))
			nameBytes, ok := buf.Slice(rec, nameOff, nameLen*2)
			if !ok {
				return out, fmt.Errorf("ntfs: attribute name out of bounds")
			}
			a.Name = utf16leString(nameBytes)
		}

		if a.NonResident {
			a.StartVCN = int64(buf.U64LE(rec[attrNonResStartVCNOffset:]))
			a.LastVCN = int64(buf.U64LE(rec[attrNonResLastVCNOffset:]))
			a.AllocSize = buf.U64LE(rec[attrNonResAllocSizeOffset:])
			a.RealSize = buf.U64LE(rec[attrNonResRealSizeOffset:])
			runOff := int(buf.U16LE(rec[attrNonResRunOffOffset:]))
			if runOff > len(rec) {
				return out, fmt.Errorf("ntfs: run list offset out of bounds")
			}
			a.RunList = rec[runOff:]
		} else {
			contentLen := int(buf.U32LE(rec[attrResContentLenOffset:]))
			contentOff := int(buf.U16LE(rec[attrResContentOffOffset:]))
			content, ok := buf.Slice(rec, contentOff, contentLen)
			if !ok {
				return out, fmt.Errorf("ntfs: resident content out of bounds")
			}
			a.Content = content
			a.RealSize = uint64(contentLen)
		}

		out = append(out, a)
		off += int(length)
	}
	return out, nil
}

func utf16leString(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return string(utf16.Decode(u))
}
