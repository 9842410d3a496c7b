package ntfs

import (
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// Times holds the four FILETIME fields carried by both STANDARD_INFORMATION
// and $FILE_NAME attributes, in raw FILETIME tick form.
type Times struct {
	Created    uint64
	Modified   uint64
	MFTChanged uint64
	Accessed   uint64
}

// StandardInfoTimes decodes STANDARD_INFORMATION's four timestamps.
func StandardInfoTimes(content []byte) (Times, error) {
	if len(content) < 32 {
		return Times{}, fmt.Errorf("ntfs: STANDARD_INFORMATION too short (%d bytes)", len(content))
	}
	return Times{
		Created:    buf.U64LE(content[0:]),
		Modified:   buf.U64LE(content[8:]),
		MFTChanged: buf.U64LE(content[16:]),
		Accessed:   buf.U64LE(content[24:]),
	}, nil
}

// FileNameTimes decodes the four timestamps embedded in a $FILE_NAME
// attribute's content (offset 8, after the 8-byte parent directory
// reference).
func FileNameTimes(content []byte) (Times, error) {
	if len(content) < 40 {
		return Times{}, fmt.Errorf("ntfs: $FILE_NAME too short (%d bytes)", len(content))
	}
	return Times{
		Created:    buf.U64LE(content[8:]),
		Modified:   buf.U64LE(content[16:]),
		MFTChanged: buf.U64LE(content[24:]),
		Accessed:   buf.U64LE(content[32:]),
	}, nil
}

// FileTimes aggregates a file's STANDARD_INFORMATION and $FILE_NAME (Win32
// namespace preferred) timestamps.
func (r *Reader) FileTimes(ref FileReference) (std Times, fn Times, err error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return Times{}, Times{}, err
	}
	rec, err := r.readRecord(ref.RecordNumber, mftRuns)
	if err != nil {
		return Times{}, Times{}, err
	}
	attrs, err := r.Attributes(rec, mftRuns)
	if err != nil {
		return Times{}, Times{}, err
	}
	for _, a := range attrs {
		switch a.Type {
		case AttrStandardInformation:
			if std, err = StandardInfoTimes(a.Content); err != nil {
				return Times{}, Times{}, err
			}
		case AttrFileName:
			t, ferr := FileNameTimes(a.Content)
			if ferr == nil && t.Created != 0 {
				// Prefer the Win32 namespace entry when more than one
				// $FILE_NAME attribute exists (POSIX/DOS/Win32+DOS).
				const namespaceOff = 0x41
				if len(a.Content) > namespaceOff && a.Content[namespaceOff] != NamespaceDOS {
					fn = t
				} else if fn.Created == 0 {
					fn = t
				}
			}
		}
	}
	return std, fn, nil
}
