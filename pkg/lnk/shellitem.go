package lnk

import "github.com/forensic-go/windecode/internal/buf"

// ShellItemClass classifies an IDList entry by its leading type-indicator
// byte. Coverage follows the most common classes seen in target IDLists;
// anything else decodes as Unknown with its raw bytes preserved.
type ShellItemClass int

const (
	ItemUnknown ShellItemClass = iota
	ItemRootFolder
	ItemVolume
	ItemDirectory
	ItemFile
	ItemNetwork
	ItemControlPanel
	ItemControlPanelEntry
	ItemUserPropertyView
	ItemDelegate
	ItemURI
	ItemVariable
	ItemMTP
	ItemHistory
	ItemGameFolder
)

// ShellItem is one decoded entry of a target IDList.
type ShellItem struct {
	Class       ShellItemClass
	Raw         []byte
	Name        string
	ModifiedFAT uint32         // FAT-packed date/time, directory/file items only
	MFTEntry    uint64         // low 48 bits of the NTFS file reference, when present
	MFTSequence uint16
}

// ParseIDList splits a target IDList byte range into its component shell
// items; the list is terminated by a 2-byte zero size or by running out
// of bytes.
func ParseIDList(b []byte) []ShellItem {
	var items []ShellItem
	pos := 0
	for pos+2 <= len(b) {
		size := int(buf.U16LE(b[pos:]))
		if size < 2 {
			break
		}
		if pos+size > len(b) {
			break
		}
		items = append(items, parseShellItem(b[pos+2:pos+size]))
		pos += size
	}
	return items
}

func parseShellItem(data []byte) ShellItem {
	if len(data) == 0 {
		return ShellItem{Class: ItemUnknown, Raw: data}
	}
	typeByte := data[0]
	item := ShellItem{Raw: data}

	switch {
	case typeByte == 0x1F:
		item.Class = ItemRootFolder
	case typeByte == 0x2E:
		item.Class = ItemMTP
	case typeByte&0x70 == 0x20:
		item.Class = ItemVolume
		item.Name = readCString(data, 1)
	case typeByte&0x70 == 0x30:
		item = parseFileEntryItem(data)
	case typeByte == 0x41 || typeByte == 0x42 || typeByte == 0x46 || typeByte == 0x47:
		item.Class = ItemNetwork
	case typeByte == 0x71:
		item.Class = ItemControlPanel
	case typeByte == 0x01 && len(data) > 2 && data[1] == 0x00:
		item.Class = ItemControlPanelEntry
	case typeByte == 0x00 && len(data) >= 3 && data[2] == 0x52:
		item.Class = ItemDelegate
	case typeByte == 0x61:
		item.Class = ItemURI
	default:
		item.Class = ItemUnknown
	}
	return item
}

// parseFileEntryItem decodes a "0x3x" directory/file shell item: the FAT
// date/time inline, the NUL-terminated ANSI name at offset 14, and an
// optional BEEF0004 extension block carrying the NTFS MFT entry/sequence.
// The file size and the extension block's Unicode long name are not decoded.
func parseFileEntryItem(data []byte) ShellItem {
	item := ShellItem{Raw: data}
	if data[0]&0x01 != 0 {
		item.Class = ItemDirectory
	} else {
		item.Class = ItemFile
	}
	if len(data) < 16 {
		return item
	}
	item.ModifiedFAT = buf.U32LE(data[8:12])
	item.Name = readCString(data, 14)

	if ext, ok := findBeefExtension(data); ok && len(ext) >= 24 {
		item.MFTEntry = buf.U64LE(ext[16:24]) & 0x0000ffffffffffff
		item.MFTSequence = buf.U16LE(ext[22:24])
	}
	return item
}

// findBeefExtension scans trailing extension blocks of a file/directory
// shell item for the 0xBEEF0004 block (FileEntryExtension) that carries
// the creation/access FILETIMEs and the MFT reference.
func findBeefExtension(data []byte) ([]byte, bool) {
	pos := 16 + len(readCStringBytes(data, 14)) + 1
	for pos+4 <= len(data) {
		size := int(buf.U16LE(data[pos:]))
		if size < 4 {
			break
		}
		if pos+size > len(data) {
			break
		}
		sig := buf.U16LE(data[pos+2:])
		if sig == 0x0004 {
			return data[pos : pos+size], true
		}
		pos += size
	}
	return nil, false
}

func readCStringBytes(b []byte, off int) []byte {
	if off < 0 || off >= len(b) {
		return nil
	}
	end := off
	for end < len(b) && b[end] != 0 {
		end++
	}
	return b[off:end]
}
