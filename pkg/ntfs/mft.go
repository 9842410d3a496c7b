package ntfs

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrStaleReference is returned when a caller's (record, sequence) pair no
// longer matches the live record's sequence number — a deleted-and-reused
// MFT slot. The taxonomy treats this as not-found, not a hard error.
var ErrStaleReference = errors.New("ntfs: stale file reference")

const (
	recSignatureOffset = 0x00
	recUpdateSeqOffset = 0x04 // offset to update-sequence array
	recUpdateCntOffset = 0x06 // number of update-sequence entries (incl. the USN itself)
	recSequenceOffset  = 0x10
	recHardLinkOffset  = 0x12
	recAttrOffset      = 0x14
	recFlagsOffset     = 0x16
	recRealSizeOffset  = 0x18
	recAllocSizeOffset = 0x1C
	recBaseRefOffset   = 0x20
	recMFTRecNoOffset  = 0x2C // only present when header version >= 3 (NTFS 3.1+)
)

// FileReference identifies an MFT record by its 48-bit record number and
// 16-bit sequence number, matching the on-disk FILE_REFERENCE encoding.
type FileReference struct {
	RecordNumber uint64
	Sequence     uint16
}

// FileRecord is a fixed-up view over one raw MFT record.
type FileRecord struct {
	buf         []byte
	RecordNo    uint64
	Sequence    uint16
	Flags       uint16
	BaseRecord  FileReference
	AttrsOffset uint16
}

const (
	recFlagInUse     = 0x0001
	recFlagDirectory = 0x0002
)

// InUse reports whether the record is allocated (not a free slot).
func (r FileRecord) InUse() bool { return r.Flags&recFlagInUse != 0 }

// IsDirectory reports whether the record's base flags mark it a directory.
func (r FileRecord) IsDirectory() bool { return r.Flags&recFlagDirectory != 0 }

// ParseFileRecord validates the "FILE" signature, applies the fixup array,
// and returns a FileRecord view. recordNo is the caller-supplied index used
// only to populate the result; it is not validated against on-disk content.
func ParseFileRecord(raw []byte, recordNo uint64, sectorSize int) (FileRecord, error) {
	if len(raw) < 0x30 || string(raw[:4]) != "FILE" {
		return FileRecord{}, fmt.Errorf("ntfs: record %d bad signature", recordNo)
	}
	data := append([]byte(nil), raw...) // fixup mutates; never touch caller's buffer
	if err := applyFixup(data, sectorSize); err != nil {
		return FileRecord{}, fmt.Errorf("ntfs: record %d: %w", recordNo, err)
	}

	baseRef := buf.U64LE(data[recBaseRefOffset:])
	rec := FileRecord{
		buf:      data,
		RecordNo: recordNo,
		Sequence: buf.U16LE(data[recSequenceOffset:]),
		Flags:    buf.U16LE(data[recFlagsOffset:]),
		BaseRecord: FileReference{
			RecordNumber: baseRef & 0x0000FFFFFFFFFFFF,
			Sequence:     uint16(baseRef >> 48),
		},
		AttrsOffset: buf.U16LE(data[recAttrOffset:]),
	}
	return rec, nil
}

// applyFixup replaces the last two bytes of every sector with the original
// values recorded in the update-sequence array, and verifies the update
// sequence number matches what each sector's tail held before replacement.
func applyFixup(data []byte, sectorSize int) error {
	if sectorSize <= 0 {
		sectorSize = 512
	}
	usaOffset := int(buf.U16LE(data[recUpdateSeqOffset:]))
	usaCount := int(buf.U16LE(data[recUpdateCntOffset:]))
	if usaCount == 0 {
		return nil
	}
	usa, ok := buf.Slice(data, usaOffset, usaCount*2)
	if !ok {
		return fmt.Errorf("ntfs: update sequence array out of bounds")
	}
	usn := usa[0:2]
	for i := 1; i < usaCount; i++ {
		sectorEnd := i*sectorSize - 2
		if sectorEnd+2 > len(data) {
			break
		}
		if data[sectorEnd] != usn[0] || data[sectorEnd+1] != usn[1] {
			// A mismatch here signals torn or corrupted I/O; callers treat
			// this record as structurally unreliable rather than aborting
			// the whole volume.
			return fmt.Errorf("ntfs: update sequence mismatch at sector %d", i)
		}
		copy(data[sectorEnd:sectorEnd+2], usa[i*2:i*2+2])
	}
	return nil
}

// CheckReference validates that ref's sequence number matches the live
// record, returning ErrStaleReference otherwise.
func CheckReference(rec FileRecord, ref FileReference) error {
	if rec.RecordNo != ref.RecordNumber {
		return fmt.Errorf("ntfs: record number mismatch: have %d want %d", rec.RecordNo, ref.RecordNumber)
	}
	if rec.Sequence != ref.Sequence {
		return fmt.Errorf("%w: record %d has sequence %d, reference wants %d",
			ErrStaleReference, rec.RecordNo, rec.Sequence, ref.Sequence)
	}
	return nil
}
