package ntfs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/codec"
	"github.com/forensic-go/windecode/pkg/sector"
)

// ErrNotFound is returned when a path component has no matching directory
// entry. Per the failure-semantics contract this is not-found, not a
// structural error.
var ErrNotFound = errors.New("ntfs: path not found")

// rootRecordNumber is the well-known MFT record number of the volume root
// directory on every NTFS volume.
const rootRecordNumber = 5

// Reader is a read-only NTFS volume reader.
type Reader struct {
	sec        *sector.Reader
	boot       BootSector
	recordSize int
	upCase     UpCaseTable
}

// Open parses the boot sector and bootstraps the reader against src, an
// io.ReaderAt over the raw volume (or an image file standing in for one).
func Open(src io.ReaderAt, volumeSize int64) (*Reader, error) {
	bootBuf := make([]byte, 512)
	if _, err := src.ReadAt(bootBuf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("ntfs: read boot sector: %w", err)
	}
	boot, err := ParseBootSector(bootBuf)
	if err != nil {
		return nil, err
	}
	sec := sector.New(src, int(boot.BytesPerSector), volumeSize)
	r := &Reader{sec: sec, boot: boot, recordSize: boot.FileRecordSize()}
	return r, nil
}

// SetUpCase installs the volume's $UpCase table for case-insensitive name
// matching; without it, ASCII-only case folding is used.
func (r *Reader) SetUpCase(t UpCaseTable) { r.upCase = t }

// readRecord fetches and fixes up the MFT record at the given record
// number by resolving it through $MFT's own data runs. mftRuns is the
// $MFT's own run list (callers obtain it via mftDataRuns).
func (r *Reader) readRecord(recordNo uint64, mftRuns []Run) (FileRecord, error) {
	raw := make([]byte, r.recordSize)
	stream := NewStream(r.sec, r.boot.ClusterSize(), mftRuns, uint64(TotalClusters(mftRuns))*uint64(r.boot.ClusterSize()))
	off := int64(recordNo) * int64(r.recordSize)
	if _, err := stream.Seek(off, io.SeekStart); err != nil {
		return FileRecord{}, err
	}
	if _, err := io.ReadFull(stream, raw); err != nil {
		return FileRecord{}, fmt.Errorf("ntfs: read MFT record %d: %w", recordNo, err)
	}
	return ParseFileRecord(raw, recordNo, int(r.boot.BytesPerSector))
}

// bootstrapMFT reads $MFT's own file record (record 0) directly off disk —
// its data runs are not yet known, so the first cluster of the record is
// read raw from the boot sector's MFT location.
func (r *Reader) bootstrapMFT() (FileRecord, error) {
	raw := make([]byte, r.recordSize)
	if _, err := r.sec.ReadAt(raw, r.boot.MFTOffset()); err != nil && err != io.EOF {
		return FileRecord{}, fmt.Errorf("ntfs: read $MFT record: %w", err)
	}
	return ParseFileRecord(raw, 0, int(r.boot.BytesPerSector))
}

// mftDataRuns resolves $MFT's own $DATA attribute's run list so subsequent
// record reads can address any record number.
func (r *Reader) mftDataRuns() ([]Run, error) {
	mftRec, err := r.bootstrapMFT()
	if err != nil {
		return nil, err
	}
	attrs, err := ParseAttributes(mftRec.buf, int(mftRec.AttrsOffset))
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.Type == AttrData && a.Name == "" {
			if !a.NonResident {
				return nil, fmt.Errorf("ntfs: $MFT $DATA unexpectedly resident")
			}
			return DecodeRunList(a.RunList)
		}
	}
	return nil, fmt.Errorf("ntfs: $MFT has no $DATA attribute")
}

// Attributes returns every attribute of a record, following ATTRIBUTE_LIST
// indirection into other records transparently.
func (r *Reader) Attributes(rec FileRecord, mftRuns []Run) ([]Attribute, error) {
	attrs, err := ParseAttributes(rec.buf, int(rec.AttrsOffset))
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.Type != AttrAttributeList {
			continue
		}
		content := a.Content
		if a.NonResident {
			runs, derr := DecodeRunList(a.RunList)
			if derr != nil {
				return attrs, derr
			}
			st := NewStream(r.sec, r.boot.ClusterSize(), runs, a.RealSize)
			content, derr = io.ReadAll(st)
			if derr != nil {
				return attrs, derr
			}
		}
		extra, err := r.followAttributeList(content, rec.RecordNo, mftRuns)
		if err != nil {
			return attrs, err
		}
		attrs = append(attrs, extra...)
	}
	return attrs, nil
}

// followAttributeList parses ATTRIBUTE_LIST entries and pulls in attributes
// stored in other (extension) MFT records, skipping entries that point back
// to the record we are already reading.
func (r *Reader) followAttributeList(content []byte, baseRecordNo uint64, mftRuns []Run) ([]Attribute, error) {
	var out []Attribute
	off := 0
	for off+26 <= len(content) {
		entryLen := int(buf.U16LE(content[off+4:]))
		if entryLen < 26 || off+entryLen > len(content) {
			break
		}
		ref := buf.U64LE(content[off+16:])
		targetRecord := ref & 0x0000FFFFFFFFFFFF
		if targetRecord != baseRecordNo {
			rec, err := r.readRecord(targetRecord, mftRuns)
			if err == nil {
				extra, _ := ParseAttributes(rec.buf, int(rec.AttrsOffset))
				out = append(out, extra...)
			}
		}
		off += entryLen
	}
	return out, nil
}

// ReadPath resolves a backslash-separated path to a FileReference, walking
// each directory's $INDEX_ROOT/$INDEX_ALLOCATION B-tree in turn.
func (r *Reader) ReadPath(path string) (FileReference, error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return FileReference{}, err
	}
	current := FileReference{RecordNumber: rootRecordNumber}
	parts := splitPath(path)
	for _, part := range parts {
		rec, err := r.readRecord(current.RecordNumber, mftRuns)
		if err != nil {
			return FileReference{}, err
		}
		attrs, err := r.Attributes(rec, mftRuns)
		if err != nil {
			return FileReference{}, err
		}
		idx, err := r.buildIndexReader(attrs, mftRuns)
		if err != nil {
			return FileReference{}, err
		}
		ref, found, err := idx.FindChild(part)
		if err != nil {
			return FileReference{}, err
		}
		if !found {
			return FileReference{}, fmt.Errorf("%w: %q", ErrNotFound, part)
		}
		current = ref
	}
	return current, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, `\/`)
	if path == "" {
		return nil
	}
	return strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
}

func (r *Reader) buildIndexReader(attrs []Attribute, mftRuns []Run) (*IndexReader, error) {
	idx := &IndexReader{UpCase: r.upCase}
	for _, a := range attrs {
		switch {
		case a.Type == AttrIndexRoot && a.Name == "$I30":
			const indexHeaderOff = 0x10
			firstEntryRel := int(buf.U32LE(a.Content[indexHeaderOff:]))
			recSize := int(buf.U32LE(a.Content[8:]))
			idx.IndexRecSize = recSize
			entries, err := ParseIndexEntries(a.Content, indexHeaderOff+firstEntryRel)
			if err != nil {
				return nil, err
			}
			idx.RootEntries = entries
		case a.Type == AttrIndexAllocation && a.Name == "$I30":
			runs, err := DecodeRunList(a.RunList)
			if err != nil {
				return nil, err
			}
			idx.AllocReader = NewStream(r.sec, r.boot.ClusterSize(), runs, a.RealSize)
		}
	}
	return idx, nil
}

// Stream opens the named attribute stream ("" for the unnamed $DATA
// attribute) of a file, following ATTRIBUTE_LIST indirection and resolving
// non-resident runs.
func (r *Reader) Stream(ref FileReference, attrName string) (io.ReadSeeker, error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return nil, err
	}
	rec, err := r.readRecord(ref.RecordNumber, mftRuns)
	if err != nil {
		return nil, err
	}
	if err := CheckReference(rec, ref); err != nil {
		return nil, err
	}
	attrs, err := r.Attributes(rec, mftRuns)
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.Type != AttrData || a.Name != attrName {
			continue
		}
		if !a.NonResident {
			return NewResidentStream(a.Content), nil
		}
		runs, err := DecodeRunList(a.RunList)
		if err != nil {
			return nil, err
		}
		return NewStream(r.sec, r.boot.ClusterSize(), runs, a.RealSize), nil
	}
	return nil, fmt.Errorf("%w: attribute stream %q", ErrNotFound, attrName)
}

// StreamData opens the file's unnamed $DATA stream, transparently
// reassembling it if it is WOF-compressed (a "WofCompressedData" alternate
// stream alongside a REPARSE_POINT naming the WOF reparse tag). Files
// without that pairing behave exactly like Stream(ref, "").
func (r *Reader) StreamData(ref FileReference) (io.ReadSeeker, error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return nil, err
	}
	rec, err := r.readRecord(ref.RecordNumber, mftRuns)
	if err != nil {
		return nil, err
	}
	if err := CheckReference(rec, ref); err != nil {
		return nil, err
	}
	attrs, err := r.Attributes(rec, mftRuns)
	if err != nil {
		return nil, err
	}

	var reparse, wof, data *Attribute
	for i := range attrs {
		a := &attrs[i]
		switch {
		case a.Type == AttrReparsePoint && a.Name == "":
			reparse = a
		case a.Type == AttrData && a.Name == "WofCompressedData":
			wof = a
		case a.Type == AttrData && a.Name == "":
			data = a
		}
	}

	if reparse == nil || wof == nil || data == nil {
		return r.Stream(ref, "")
	}
	reparseContent, err := r.readFullAttribute(reparse, mftRuns)
	if err != nil {
		return nil, err
	}
	tag, err := DecodeReparseTag(reparseContent)
	if err != nil || tag != ReparseWOF {
		return r.Stream(ref, "")
	}
	wofContent, err := r.readFullAttribute(wof, mftRuns)
	if err != nil {
		return nil, err
	}
	out, err := DecompressWofStream(reparseContent, wofContent, data.RealSize)
	if err != nil {
		if errors.Is(err, codec.ErrUnsupportedVariant) {
			// LZX-32K WOF: surface the raw compressed bytes rather
			// than failing the whole stream.
			return NewResidentStream(wofContent), err
		}
		return nil, err
	}
	return NewResidentStream(out), nil
}

// readFullAttribute reads an attribute's entire content, whether resident or
// spread across non-resident runs.
func (r *Reader) readFullAttribute(a *Attribute, mftRuns []Run) ([]byte, error) {
	if !a.NonResident {
		return a.Content, nil
	}
	runs, err := DecodeRunList(a.RunList)
	if err != nil {
		return nil, err
	}
	s := NewStream(r.sec, r.boot.ClusterSize(), runs, a.RealSize)
	return io.ReadAll(s)
}

// AlternateStream describes one named $DATA attribute on a file.
type AlternateStream struct {
	Name string
	Size uint64
}

// AlternateStreams lists every named $DATA attribute on a file (the
// unnamed, primary stream is excluded).
func (r *Reader) AlternateStreams(ref FileReference) ([]AlternateStream, error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return nil, err
	}
	rec, err := r.readRecord(ref.RecordNumber, mftRuns)
	if err != nil {
		return nil, err
	}
	attrs, err := r.Attributes(rec, mftRuns)
	if err != nil {
		return nil, err
	}
	var out []AlternateStream
	for _, a := range attrs {
		if a.Type == AttrData && a.Name != "" {
			out = append(out, AlternateStream{Name: a.Name, Size: a.RealSize})
		}
	}
	return out, nil
}

// ReparseTag returns the decoded reparse tag for a file, or ReparseUnknown
// with a nil error if the file has no REPARSE_POINT attribute.
func (r *Reader) ReparseTag(ref FileReference) (ReparseType, error) {
	mftRuns, err := r.mftDataRuns()
	if err != nil {
		return ReparseUnknown, err
	}
	rec, err := r.readRecord(ref.RecordNumber, mftRuns)
	if err != nil {
		return ReparseUnknown, err
	}
	attrs, err := r.Attributes(rec, mftRuns)
	if err != nil {
		return ReparseUnknown, err
	}
	for _, a := range attrs {
		if a.Type == AttrReparsePoint {
			return DecodeReparseTag(a.Content)
		}
	}
	return ReparseUnknown, nil
}
