package ntfs

import "fmt"

// Run is one decoded data-run: Sparse runs carry LCN 0 and Sparse true;
// consumers must zero-fill length*clusterSize bytes instead of reading.
type Run struct {
	LengthClusters int64
	LCN            int64 // absolute logical cluster number; meaningless if Sparse
	Sparse         bool
}

// DecodeRunList decodes an NTFS non-resident attribute's run list into an
// ordered sequence of (length, LCN) pairs. Each run header byte packs the
// byte-width of the following length field in its low nibble and the
// byte-width of the (signed, run-relative) LCN delta in its high nibble; a
// header byte of 0x00 ends the list. An LCN-delta width of 0 marks a sparse
// run.
func DecodeRunList(b []byte) ([]Run, error) {
	var runs []Run
	var lcn int64
	pos := 0
	for pos < len(b) {
		header := b[pos]
		if header == 0 {
			break
		}
		pos++
		lenWidth := int(header & 0x0F)
		lcnWidth := int(header >> 4)

		length, err := readRunField(b, pos, lenWidth, false)
		if err != nil {
			return nil, fmt.Errorf("ntfs: run list length: %w", err)
		}
		pos += lenWidth

		run := Run{LengthClusters: length}
		if lcnWidth == 0 {
			run.Sparse = true
		} else {
			delta, err := readRunField(b, pos, lcnWidth, true)
			if err != nil {
				return nil, fmt.Errorf("ntfs: run list LCN delta: %w", err)
			}
			pos += lcnWidth
			lcn += delta
			run.LCN = lcn
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// readRunField reads a little-endian field of the given byte width,
// sign-extending when signed is true (used for LCN deltas, which may be
// negative).
func readRunField(b []byte, off, width int, signed bool) (int64, error) {
	if width == 0 {
		return 0, nil
	}
	if off+width > len(b) {
		return 0, fmt.Errorf("field out of bounds at %d width %d", off, width)
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	if signed && b[off+width-1]&0x80 != 0 {
		// Sign-extend: set all bits above the field width.
		v |= ^uint64(0) << (8 * width)
	}
	return int64(v), nil
}

// TotalClusters returns the sum of every run's length, sparse or not.
func TotalClusters(runs []Run) int64 {
	var total int64
	for _, r := range runs {
		total += r.LengthClusters
	}
	return total
}
