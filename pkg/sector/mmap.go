package sector

import (
	"bytes"
	"fmt"

	"github.com/forensic-go/windecode/internal/mmfile"
)

// OpenMapped memory-maps the file at path and wraps it as a Reader, avoiding
// a heap copy for the large volume/database images this package's callers
// typically open. The returned close func must be called once the Reader is
// no longer needed; it unmaps the file.
func OpenMapped(path string, sect int) (*Reader, func() error, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sector: mapping %s: %w", path, err)
	}
	r := New(bytes.NewReader(data), sect, int64(len(data)))
	return r, cleanup, nil
}
