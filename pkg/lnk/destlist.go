package lnk

import (
	"errors"
	"fmt"
	"io"

	"github.com/richardlehane/mscfb"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/record"
)

var ErrBadJumpList = errors.New("lnk: corrupt jumplist")

// DestListEntry is one row of an AutomaticDestinations file's DestList
// stream: a pinned/used-target record keyed by an entry id that matches
// one of the CFBF container's numbered LNK streams.
type DestListEntry struct {
	EntryID       uint32
	ModifiedTime  string
	PinStatus     int32
	Path          string
	Hostname      string
	DroidVolumeID [16]byte
	DroidFileID   [16]byte
}

// AutomaticJumpList is a decoded *.automaticDestinations-ms file: the
// DestList entries plus the LNK file embedded in each numbered stream.
type AutomaticJumpList struct {
	Entries []DestListEntry
	Links   map[uint32]Link
}

// ParseAutomaticDestinations reads an OLE/CFBF compound file and decodes
// its DestList stream and numbered LNK streams.
func ParseAutomaticDestinations(r io.ReaderAt) (AutomaticJumpList, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return AutomaticJumpList{}, fmt.Errorf("lnk: open compound file: %w", err)
	}

	var destListRaw []byte
	lnkStreams := map[uint32][]byte{}

	for entry, ferr := doc.Next(); ferr == nil; entry, ferr = doc.Next() {
		name := entry.Name
		raw := make([]byte, entry.Size)
		if _, err := io.ReadFull(doc, raw); err != nil && err != io.EOF {
			continue
		}
		if name == "DestList" {
			destListRaw = raw
			continue
		}
		var id uint32
		if n, err := fmt.Sscanf(name, "%d", &id); err == nil && n == 1 {
			lnkStreams[id] = raw
		}
	}

	jl := AutomaticJumpList{Links: map[uint32]Link{}}
	jl.Entries = parseDestList(destListRaw)
	for _, e := range jl.Entries {
		raw, ok := lnkStreams[e.EntryID]
		if !ok {
			continue
		}
		link, err := Parse(raw)
		if err == nil {
			jl.Links[e.EntryID] = link
		}
	}
	return jl, nil
}

// destListHeaderSize is the fixed portion preceding the variable-length
// entry array: version (4), last-entry number (4), 4 reserved fields, and
// pinned-entry-count/last-revision fields.
const destListHeaderSize = 32

func parseDestList(b []byte) []DestListEntry {
	if len(b) < destListHeaderSize {
		return nil
	}
	var entries []DestListEntry
	pos := destListHeaderSize
	for pos+122 <= len(b) {
		rec := b[pos:]
		pathLen := int(buf.U16LE(rec[120:]))
		recSize := 122 + pathLen*2
		if pos+recSize > len(b) {
			break
		}

		var volID, fileID [16]byte
		copy(volID[:], rec[0:16])
		copy(fileID[:], rec[16:32])

		entry := DestListEntry{
			DroidVolumeID: volID,
			DroidFileID:   fileID,
			Hostname:      string(readCStringBytes(rec[64:88], 0)),
			EntryID:       buf.U32LE(rec[88:]),
			ModifiedTime:  record.FiletimeToISO8601(buf.U64LE(rec[100:])),
			PinStatus:     int32(buf.U32LE(rec[108:])),
			Path:          record.UTF16LEToString(rec[122 : 122+pathLen*2]),
		}
		entries = append(entries, entry)
		pos += recSize
	}
	return entries
}

// CustomJumpListCategory is a named or known group of LNK targets within
// a *.customDestinations-ms file.
type CustomJumpListCategory struct {
	Name  string
	Links []Link
}

// customJumpListFooter is the fixed 4-byte footer that closes a custom
// destinations file. The file has no CFBF container: it's a flat sequence
// of LNK streams separated by category markers, each LNK blob starting with
// the 0x4C header-size field followed by headerGUID.
var customJumpListFooter = []byte{0xAB, 0xFB, 0xBF, 0xBA}

// ParseCustomDestinations scans a *.customDestinations-ms file for
// embedded LNK blobs by locating the ShellLinkHeader signature, since the
// format carries no directory structure of its own.
func ParseCustomDestinations(b []byte) ([]Link, error) {
	var links []Link
	pos := 0
	for pos+headerSize <= len(b) {
		if buf.U32LE(b[pos:]) == 0x4C {
			var guid [16]byte
			copy(guid[:], b[pos+4:pos+20])
			if guid == headerGUID {
				end := nextLNKStart(b, pos+headerSize)
				link, err := Parse(b[pos:end])
				if err == nil {
					links = append(links, link)
				}
				pos = end
				continue
			}
		}
		pos++
	}
	return links, nil
}

// nextLNKStart finds where the next embedded LNK blob begins (or the
// footer/end of buffer), bounding the slice passed to Parse.
func nextLNKStart(b []byte, from int) int {
	for pos := from; pos+20 <= len(b); pos++ {
		if buf.U32LE(b[pos:]) != 0x4C {
			continue
		}
		var guid [16]byte
		copy(guid[:], b[pos+4:pos+20])
		if guid == headerGUID {
			return pos
		}
	}
	return len(b)
}
