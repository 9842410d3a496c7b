package ost

import (
	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/record"
)

// NameIDNode is the fixed node id of the name-to-id map's Property Context,
// which resolves named (as opposed to well-known numeric) properties.
const NameIDNode uint32 = 0x61

const (
	propNameidStreamGUID   uint16 = 0x0002
	propNameidStreamEntry  uint16 = 0x0003
	propNameidStreamString uint16 = 0x0004
)

// NamedProp is one resolved named property: either a 32-bit numeric LID or
// a name string, and the ephemeral PropID (0x8000+) under which it's
// actually stored in per-message Property Contexts.
type NamedProp struct {
	PropID    uint16
	IsNamed   bool   // true if identified by Name, false if by NumericID
	NumericID uint32
	Name      string
	GUIDIdx   uint16
}

// ParseNameIDMap decodes the name-to-id map's entry and string streams into
// a lookup by ephemeral PropID. The GUID stream is not read; GUIDIdx is left
// as the raw index into it.
func ParseNameIDMap(props []PropEntry) map[uint16]NamedProp {
	var entries, strings []byte
	for _, p := range props {
		switch p.ID {
		case propNameidStreamEntry:
			entries = p.Data
		case propNameidStreamString:
			strings = p.Data
		}
	}

	out := map[uint16]NamedProp{}
	const recSize = 8
	for pos := 0; pos+recSize <= len(entries); pos += recSize {
		rec := entries[pos : pos+recSize]
		dword := buf.U32LE(rec[0:])
		wGuid := buf.U16LE(rec[4:])
		wPropIdx := buf.U16LE(rec[6:])

		np := NamedProp{PropID: 0x8000 + wPropIdx, GUIDIdx: wGuid >> 1}
		if wGuid&1 == 0 {
			np.IsNamed = false
			np.NumericID = dword
		} else {
			np.IsNamed = true
			np.Name = readNameString(strings, dword)
		}
		out[np.PropID] = np
	}
	return out
}

// readNameString reads a length-prefixed UTF-16LE name from the string
// stream at the given byte offset.
func readNameString(strings []byte, offset uint32) string {
	pos := int(offset)
	if pos+4 > len(strings) {
		return ""
	}
	n := int(buf.U32LE(strings[pos:]))
	start := pos + 4
	end := start + n
	if end > len(strings) || n < 0 {
		return ""
	}
	return record.UTF16LEToString(strings[start:end])
}
