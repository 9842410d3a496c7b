package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatGUIDRoundTrip(t *testing.T) {
	raw := []byte{
		0xac, 0x04, 0x65, 0x26, 0x74, 0xd9, 0x6c, 0x44,
		0x96, 0xad, 0x2b, 0xe1, 0x3a, 0x56, 0x65, 0xb0,
	}
	s, err := FormatGUID(raw)
	require.NoError(t, err)
	require.Equal(t, "266504ac-d974-446c-96ad-2be13a5665b0", s)

	back, err := ParseGUID(s)
	require.NoError(t, err)
	require.Equal(t, raw, back)
}

func TestFormatGUIDWrongLength(t *testing.T) {
	_, err := FormatGUID(make([]byte, 10))
	require.ErrorIs(t, err, ErrInvalidGUID)
}

func TestFiletimeToISO8601(t *testing.T) {
	// 2024-09-10T04:14:19.000Z in FILETIME ticks.
	got := FiletimeToISO8601(133704152590000000)
	require.Equal(t, "2024-09-10T04:14:19.000Z", got)
}

func TestFiletimeRoundTrip(t *testing.T) {
	const original uint64 = 133704152590000000
	s := FiletimeToISO8601(original)
	back, err := ISO8601ToFiletime(s)
	require.NoError(t, err)
	require.Equal(t, original, back)
}

func TestFiletimeOutOfRangeIsEmpty(t *testing.T) {
	// The largest FILETIME falls in year 60056, past the year-9999 limit.
	require.Empty(t, FiletimeToISO8601(0xFFFFFFFFFFFFFFFF))
}

func TestUTF16LEToString(t *testing.T) {
	// "Hi" UTF-16LE with a trailing NUL terminator pair.
	b := []byte{'H', 0, 'i', 0, 0, 0}
	require.Equal(t, "Hi", UTF16LEToString(b))
}

func TestCodePageToString(t *testing.T) {
	s, err := CodePageToString([]byte("Inbox\x00trailing"))
	require.NoError(t, err)
	require.Equal(t, "Inbox", s)
}

func TestMultiValue(t *testing.T) {
	s, err := MultiValue([]string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, `["1","2"]`, s)
}

func TestBase64(t *testing.T) {
	require.Equal(t, "aGVsbG8=", Base64([]byte("hello")))
}
