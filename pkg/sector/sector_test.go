package sector

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSector(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 4096)
	data = append(data, bytes.Repeat([]byte{0xAB}, 4096)...)
	r := New(bytes.NewReader(data), 4096, int64(len(data)))

	s0, err := r.ReadSector(0)
	require.NoError(t, err)
	require.Equal(t, data[:4096], s0)

	s1, err := r.ReadSector(1)
	require.NoError(t, err)
	require.Equal(t, data[4096:8192], s1)
}

func TestReadRangeShort(t *testing.T) {
	r := New(bytes.NewReader([]byte("hi")), 512, 2)
	_, err := r.ReadRange(0, 10)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestReadAtEOF(t *testing.T) {
	r := New(bytes.NewReader([]byte("hi")), 512, 2)
	_, err := r.ReadAt(make([]byte, 1), 2)
	require.ErrorIs(t, err, io.EOF)
}

func TestDefaultSectorSize(t *testing.T) {
	r := New(bytes.NewReader(nil), 0, 0)
	require.Equal(t, DefaultSize, r.SectorSize())
}

func TestOpenMappedRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte{0xCD}, 8192)
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, want, 0o644))

	r, closeFn, err := OpenMapped(path, 4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	got, err := r.ReadRange(0, len(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
}
