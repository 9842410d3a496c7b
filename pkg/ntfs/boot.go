// Package ntfs implements a read-only, user-space NTFS volume reader: boot
// sector parsing, $MFT bootstrap, path resolution through $INDEX_ROOT /
// $INDEX_ALLOCATION, attribute stream reading across resident and
// non-resident runs, ATTRIBUTE_LIST indirection, WOF-compressed stream
// decompression, and reparse-tag decoding.
package ntfs

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrBadBootSector is returned when the boot sector's OEM id or sector
// geometry does not describe an NTFS volume.
var ErrBadBootSector = errors.New("ntfs: not an NTFS boot sector")

const (
	bootOEMOffset         = 0x03
	bootBytesPerSector    = 0x0B
	bootSectorsPerCluster = 0x0D
	bootMFTClusterOffset  = 0x30
	bootMFTMirrClusterOff = 0x38
	bootClustersPerRecOff = 0x40
	bootVolumeSerialOff   = 0x48
)

// BootSector is the subset of NTFS boot-sector fields the reader needs.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	MFTCluster        uint64
	MFTMirrCluster    uint64
	BytesPerFileRec   int32  // if positive, clusters per record; if negative, 2^-n bytes
	VolumeSerial      uint64
}

// ParseBootSector parses the 512-byte (or larger) NTFS boot sector.
func ParseBootSector(b []byte) (BootSector, error) {
	if len(b) < 0x50 {
		return BootSector{}, fmt.Errorf("%w: boot sector too small (%d bytes)", ErrBadBootSector, len(b))
	}
	oem, ok := buf.Slice(b, bootOEMOffset, 8)
	if !ok || string(oem) != "NTFS    " {
		return BootSector{}, fmt.Errorf("%w: OEM id %q", ErrBadBootSector, oem)
	}

	bs := BootSector{
		BytesPerSector:    buf.U16LE(b[bootBytesPerSector:]),
		SectorsPerCluster: b[bootSectorsPerCluster],
		MFTCluster:        buf.U64LE(b[bootMFTClusterOffset:]),
		MFTMirrCluster:    buf.U64LE(b[bootMFTMirrClusterOff:]),
		BytesPerFileRec:   int32(buf.U32LE(b[bootClustersPerRecOff:])),
		VolumeSerial:      buf.U64LE(b[bootVolumeSerialOff:]),
	}
	if bs.BytesPerSector == 0 || bs.SectorsPerCluster == 0 {
		return BootSector{}, fmt.Errorf("%w: zero sector/cluster geometry", ErrBadBootSector)
	}
	return bs, nil
}

// ClusterSize returns the volume's cluster size in bytes.
func (b BootSector) ClusterSize() int {
	return int(b.BytesPerSector) * int(b.SectorsPerCluster)
}

// FileRecordSize returns the size in bytes of one MFT file record.
func (b BootSector) FileRecordSize() int {
	if b.BytesPerFileRec >= 0 {
		return int(b.BytesPerFileRec) * b.ClusterSize()
	}
	// Negative values encode a byte count as a power of two: size = 2^-n.
	shift := uint(-b.BytesPerFileRec)
	return 1 << shift
}

// MFTOffset returns the byte offset of the $MFT's first cluster.
func (b BootSector) MFTOffset() int64 {
	return int64(b.MFTCluster) * int64(b.ClusterSize())
}
