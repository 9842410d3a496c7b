// Package sector adapts an underlying seekable byte source to sector-aligned
// reads. It is a pure wrapper: it performs no caching and no read-ahead, and
// every call is a direct io.ReaderAt.ReadAt against the backing source.
package sector

import (
	"errors"
	"fmt"
	"io"
)

// DefaultSize is the sector size assumed when a volume's boot sector has not
// yet been parsed.
const DefaultSize = 4096

// ErrShortRead is returned when the backing source yields fewer bytes than
// requested at end of file.
var ErrShortRead = errors.New("sector: short read")

// Reader wraps an io.ReaderAt with a fixed sector size. Callers may read at
// arbitrary byte offsets; Reader does not require offsets or lengths to be
// sector-aligned and does no padding. The sector size is used only by
// ReadSector to size and place its read.
type Reader struct {
	src  io.ReaderAt
	size int64       // total addressable length, 0 if unknown
	sect int         // sector size in bytes
}

// New wraps src as a sector.Reader with the given sector size. size is the
// total addressable length in bytes, or 0 if unknown (reads past an unknown
// end are simply passed through to src and its own error surfaces).
func New(src io.ReaderAt, sect int, size int64) *Reader {
	if sect <= 0 {
		sect = DefaultSize
	}
	return &Reader{src: src, size: size, sect: sect}
}

// SectorSize returns the configured sector size.
func (r *Reader) SectorSize() int {
	return r.sect
}

// Size returns the total addressable length in bytes, or 0 if unknown.
func (r *Reader) Size() int64 {
	return r.size
}

// ReadAt implements io.ReaderAt by delegating directly to the backing
// source; sector alignment is not required for correctness, only used by
// higher layers that prefer to batch reads on sector boundaries.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("sector: negative offset %d", off)
	}
	if r.size > 0 && off >= r.size {
		return 0, io.EOF
	}
	n, err := r.src.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("sector: read at %d: %w", off, err)
	}
	return n, err
}

// ReadSector reads exactly one sector starting at sector index idx.
func (r *Reader) ReadSector(idx int64) ([]byte, error) {
	buf := make([]byte, r.sect)
	n, err := r.ReadAt(buf, idx*int64(r.sect))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n < r.sect {
		return nil, fmt.Errorf("%w: sector %d wanted %d got %d", ErrShortRead, idx, r.sect, n)
	}
	return buf, nil
}

// ReadRange reads the exact byte range [off, off+n) regardless of sector
// alignment, returning a full error instead of a short read.
func (r *Reader) ReadRange(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if read < n {
		return nil, fmt.Errorf("%w: range [%d,%d) wanted %d got %d", ErrShortRead, off, off+int64(n), n, read)
	}
	return buf, nil
}
