package ntfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeBootSector() []byte {
	b := make([]byte, 512)
	copy(b[3:], []byte("NTFS    "))
	b[0x0B] = 0x00
	b[0x0C] = 0x02 // 512 bytes per sector
	b[0x0D] = 0x08 // 8 sectors per cluster -> 4096-byte clusters
	// MFT cluster number at 0x30 (8 bytes LE): cluster 4.
	b[0x30] = 4
	// clusters-per-file-record at 0x40, signed 32-bit LE: -10 -> 2^10 = 1024-byte records.
	b[0x40] = 0xF6
	b[0x41] = 0xFF
	b[0x42] = 0xFF
	b[0x43] = 0xFF
	return b
}

func TestParseBootSector(t *testing.T) {
	boot, err := ParseBootSector(makeBootSector())
	require.NoError(t, err)
	require.Equal(t, uint16(512), boot.BytesPerSector)
	require.Equal(t, uint8(8), boot.SectorsPerCluster)
	require.Equal(t, 4096, boot.ClusterSize())
	require.Equal(t, 1024, boot.FileRecordSize())
	require.Equal(t, int64(4*4096), boot.MFTOffset())
}

func TestParseBootSectorBadSignature(t *testing.T) {
	b := make([]byte, 512)
	copy(b[3:], []byte("FAT32   "))
	_, err := ParseBootSector(b)
	require.ErrorIs(t, err, ErrBadBootSector)
}
