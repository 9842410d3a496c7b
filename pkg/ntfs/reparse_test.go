package ntfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeReparseTagKnown(t *testing.T) {
	content := []byte{0x17, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00} // 0x80000017 = WOF
	tag, err := DecodeReparseTag(content)
	require.NoError(t, err)
	require.Equal(t, ReparseWOF, tag)
}

func TestDecodeReparseTagUnknown(t *testing.T) {
	content := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	tag, err := DecodeReparseTag(content)
	require.NoError(t, err)
	require.Equal(t, ReparseUnknown, tag)
}

func TestDecodeReparseTagTooShort(t *testing.T) {
	_, err := DecodeReparseTag([]byte{0x01, 0x02})
	require.Error(t, err)
}
