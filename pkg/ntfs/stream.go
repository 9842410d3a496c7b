package ntfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/forensic-go/windecode/pkg/sector"
)

// Stream is a read-only, seekable view over one non-resident attribute's
// data runs, translating byte offsets through the VCN->LCN run list and
// zero-filling sparse runs on the fly.
type Stream struct {
	sec         *sector.Reader
	clusterSize int
	runs        []Run
	size        int64          // logical size exposed to readers (may be < allocated size)
	pos         int64
}

// NewStream builds a Stream over runs, bounded to logicalSize bytes.
func NewStream(sec *sector.Reader, clusterSize int, runs []Run, logicalSize uint64) *Stream {
	return &Stream{sec: sec, clusterSize: clusterSize, runs: runs, size: int64(logicalSize)}
}

// ResidentStream wraps an in-memory resident attribute's content as a
// Stream-compatible io.ReadSeeker.
type ResidentStream struct {
	data []byte
	pos  int64
}

// NewResidentStream wraps content for reading.
func NewResidentStream(content []byte) *ResidentStream {
	return &ResidentStream{data: content}
}

func (r *ResidentStream) Read(p []byte) (int, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

func (r *ResidentStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = int64(len(r.data))
	default:
		return 0, errors.New("ntfs: invalid whence")
	}
	r.pos = base + offset
	return r.pos, nil
}

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = s.size
	default:
		return 0, errors.New("ntfs: invalid whence")
	}
	s.pos = base + offset
	return s.pos, nil
}

// Read implements io.Reader, translating the current position through the
// run list one run at a time.
func (s *Stream) Read(p []byte) (int, error) {
	if s.pos >= s.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	maxLen := s.size - s.pos
	want := int64(len(p))
	if want > maxLen {
		want = maxLen
	}

	vcn := s.pos / int64(s.clusterSize)
	runStartVCN := int64(0)
	var run *Run
	for i := range s.runs {
		r := &s.runs[i]
		if vcn < runStartVCN+r.LengthClusters {
			run = r
			break
		}
		runStartVCN += r.LengthClusters
	}
	if run == nil {
		return 0, fmt.Errorf("ntfs: position %d beyond run list (vcn %d)", s.pos, vcn)
	}

	offsetInRun := s.pos - runStartVCN*int64(s.clusterSize)
	remainingInRun := run.LengthClusters*int64(s.clusterSize) - offsetInRun
	n := want
	if n > remainingInRun {
		n = remainingInRun
	}

	if run.Sparse {
		for i := int64(0); i < n; i++ {
			p[i] = 0
		}
	} else {
		diskOff := run.LCN*int64(s.clusterSize) + offsetInRun
		got, err := s.sec.ReadAt(p[:n], diskOff)
		if err != nil && err != io.EOF {
			return got, fmt.Errorf("ntfs: read stream at %d: %w", diskOff, err)
		}
		n = int64(got)
	}
	s.pos += n
	return int(n), nil
}

// ReadAll drains the stream from its current position to its logical end.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
