package ntfs

import (
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/codec"
)

// ReparseType enumerates the reparse tags the reader understands; anything
// else decodes to ReparseUnknown rather than failing the file.
type ReparseType string

const (
	ReparseSymbolicLink ReparseType = "SymbolicLink"
	ReparseMountPoint   ReparseType = "MountPoint"
	ReparseWOF          ReparseType = "WOF"
	ReparseOneDrive     ReparseType = "OneDrive"
	ReparseCloud        ReparseType = "Cloud"
	ReparseAppExecLink  ReparseType = "AppExecLink"
	ReparseUnknown      ReparseType = "Unknown"
)

var reparseTags = map[uint32]ReparseType{
	0xA000000C: ReparseSymbolicLink,
	0xA0000003: ReparseMountPoint,
	0x80000017: ReparseWOF,
	0x80000027: ReparseOneDrive,
	0x9000301A: ReparseCloud,
	0x8000001B: ReparseAppExecLink,
}

// DecodeReparseTag maps a REPARSE_POINT attribute's leading 4-byte LE tag.
func DecodeReparseTag(reparseContent []byte) (ReparseType, error) {
	if len(reparseContent) < 4 {
		return ReparseUnknown, fmt.Errorf("ntfs: reparse content too short")
	}
	tag := buf.U32LE(reparseContent)
	if t, ok := reparseTags[tag]; ok {
		return t, nil
	}
	return ReparseUnknown, nil
}

const wofReparseDataOffset = 8 // skip tag(4)+dataLength(2)+reserved(2) REPARSE_DATA_BUFFER header

// DecompressWofStream reassembles a $DATA attribute's WofCompressedData
// alternate-stream bytes into the original logical file content, using the
// compression-method field carried in the sibling REPARSE_POINT's payload.
func DecompressWofStream(reparseContent []byte, wofData []byte, uncompressedLen uint64) ([]byte, error) {
	if len(reparseContent) < wofReparseDataOffset+16 {
		return nil, fmt.Errorf("ntfs: WOF reparse payload too short")
	}
	// REPARSE_DATA_BUFFER for WOF: Version(4) Provider(4) Version(4)
	// CompressionFormat(4) follows the generic 8-byte header.
	payload := reparseContent[wofReparseDataOffset:]
	compressionMethod := buf.U32LE(payload[12:])
	out, err := codec.DecompressWof(wofData, int(uncompressedLen), compressionMethod)
	if err != nil {
		return out, fmt.Errorf("ntfs: WOF decompress: %w", err)
	}
	return out, nil
}
