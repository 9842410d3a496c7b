// Package record converts typed ESE column values and OST property values
// into the stable, language-neutral string encoding used by every emitted
// record: ISO-8601 timestamps, base64 opaque bytes, and JSON arrays for
// multi-valued properties.
package record

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// ErrInvalidGUID is returned when a GUID is formatted from the wrong number
// of bytes.
var ErrInvalidGUID = errors.New("record: GUID must be exactly 16 bytes")

const (
	filetimeEpochOffset = 116444736000000000 // 100ns ticks between 1601-01-01 and 1970-01-01
	filetimeUnit        = 100                // nanoseconds per FILETIME tick

	minFiletimeYear = 1601
	maxFiletimeYear = 9999
)

// FiletimeToISO8601 converts a raw 64-bit FILETIME (100ns ticks since
// 1601-01-01 UTC) to an ISO-8601 UTC string with millisecond precision. A
// value outside the representable [1601,9999] range yields an empty string
// rather than an error, matching the taxonomy's "unsupported" handling for
// malformed timestamps.
func FiletimeToISO8601(v uint64) string {
	t := filetimeToTime(v)
	if t.Year() < minFiletimeYear || t.Year() > maxFiletimeYear {
		return ""
	}
	return t.Format("2006-01-02T15:04:05.000Z")
}

func filetimeToTime(v uint64) time.Time {
	// Convert via whole seconds so values far from the Unix epoch (before
	// 1970 or past 2262) do not overflow a nanosecond count; the caller's
	// year check then sees the real year.
	const ticksPerSecond = 1_000_000_000 / filetimeUnit
	secs := int64(v/ticksPerSecond) - filetimeEpochOffset/ticksPerSecond
	nsec := int64(v%ticksPerSecond) * filetimeUnit
	return time.Unix(secs, nsec).UTC()
}

// ISO8601ToFiletime reverses FiletimeToISO8601, truncated to milliseconds,
// for the normalizer's round-trip test coverage.
func ISO8601ToFiletime(s string) (uint64, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return 0, fmt.Errorf("record: parse ISO-8601: %w", err)
	}
	ticks := t.UTC().UnixNano() / filetimeUnit
	return uint64(ticks + filetimeEpochOffset), nil
}

// oleDateEpoch is 1899-12-30, the zero point of an OLE Automation date.
var oleDateEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// OLEDateToISO8601 converts an 8-byte IEEE-754 OLE Automation date (days,
// with the fractional part a portion of a day) to an ISO-8601 UTC string.
func OLEDateToISO8601(v float64) string {
	days := int64(v)
	frac := v - float64(days)
	t := oleDateEpoch.AddDate(0, 0, int(days)).Add(time.Duration(frac * float64(24*time.Hour)))
	if t.Year() < minFiletimeYear || t.Year() > maxFiletimeYear {
		return ""
	}
	return t.Format("2006-01-02T15:04:05.000Z")
}

// FormatGUID renders 16 raw bytes as a canonical
// XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX GUID string. The first three groups
// are little-endian; the final two groups are big-endian (raw byte order),
// matching the Microsoft GUID wire format.
func FormatGUID(b []byte) (string, error) {
	if len(b) != 16 {
		return "", ErrInvalidGUID
	}
	d1 := binary.LittleEndian.Uint32(b[0:4])
	d2 := binary.LittleEndian.Uint16(b[4:6])
	d3 := binary.LittleEndian.Uint16(b[6:8])
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		d1, d2, d3, b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15]), nil
}

// ParseGUID is the inverse of FormatGUID, used by the normalizer's
// bijection test.
func ParseGUID(s string) ([]byte, error) {
	var d1 uint32
	var d2, d3 uint16
	var d4 [8]byte
	n, err := fmt.Sscanf(s, "%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		&d1, &d2, &d3, &d4[0], &d4[1], &d4[2], &d4[3], &d4[4], &d4[5], &d4[6], &d4[7])
	if err != nil || n != 11 {
		return nil, fmt.Errorf("record: malformed GUID %q: %w", s, err)
	}
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:4], d1)
	binary.LittleEndian.PutUint16(out[4:6], d2)
	binary.LittleEndian.PutUint16(out[6:8], d3)
	copy(out[8:16], d4[:])
	return out, nil
}

// UTF16LEToString decodes a UTF-16LE byte slice (with or without a trailing
// NUL terminator pair) to a UTF-8 Go string.
func UTF16LEToString(b []byte) string {
	if len(b) >= 2 && b[len(b)-2] == 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-2]
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return string(utf16.Decode(u))
}

// CodePageToString decodes a single-byte legacy code-page string ("String8"
// in the OST property vocabulary). Embedded NULs mark end-of-string.
// Windows-1252 is used as the representative code page, matching the
// fallback the OST/ESE formats actually ship in the overwhelming majority of
// Latin-alphabet artifacts.
func CodePageToString(b []byte) (string, error) {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("record: decode code-page string: %w", err)
	}
	return string(decoded), nil
}

// Base64 encodes opaque bytes using standard base64, the encoding used for
// every Binary/LongBinary/unknown-type column value that is surfaced.
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Int formats a signed integer value as decimal.
func Int(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Uint formats an unsigned integer value as decimal.
func Uint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// Bool formats a boolean as "true"/"false".
func Bool(v bool) string {
	return strconv.FormatBool(v)
}

// Float formats a float using the shortest round-trip decimal
// representation.
func Float(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// MultiValue JSON-encodes a slice of already-stringified scalar values,
// representing a multi-valued ESE or OST property.
func MultiValue(values []string) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("record: encode multi-value: %w", err)
	}
	return string(b), nil
}
