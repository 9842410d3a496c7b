package ese

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

// ErrCorruptPage is returned when a page's tag array cannot be parsed.
var ErrCorruptPage = errors.New("ese: corrupt page")

const pageHeaderSize = 40

// PageFlags describes the role a page plays in a table's B-tree. Bit
// positions follow the publicly documented EDB page format (libesedb's
// page header layout); the retrieved original source names the flags but
// does not carry the raw bit offsets, so this is a deliberate, documented
// choice rather than a direct port.
type PageFlags uint32

const (
	PageRoot      PageFlags = 0x0001
	PageLeaf      PageFlags = 0x0002
	PageParent    PageFlags = 0x0004
	PageEmpty     PageFlags = 0x0008
	PageSpaceTree PageFlags = 0x0020
	PageIndex     PageFlags = 0x0040
	PageLongValue PageFlags = 0x0080
	PagePrimary   PageFlags = 0x1000
)

func (f PageFlags) Has(bit PageFlags) bool { return f&bit != 0 }

// TagFlags marks how a tag-array entry's slot should be treated.
type TagFlags uint8

const (
	TagDefunct TagFlags = 0x1
)

func (f TagFlags) Has(bit TagFlags) bool { return f&bit != 0 }

// Tag is one entry of a page's tag array: an (offset, size) pair into the
// page body plus status flags. The array grows from the tail of the page
// toward the body.
type Tag struct {
	Offset uint16
	Size   uint16
	Flags  TagFlags
}

// PageHeader is the parsed fixed header of one ESE page plus its tag array.
type PageHeader struct {
	Flags PageFlags
	Tags  []Tag
	// Body is the page's record area (everything between the fixed header
	// and the tag array).
	Body []byte
}

// ParsePage parses one page-sized buffer into its header, tag array, and
// body. pageSize must match the size the caller read.
func ParsePage(b []byte) (PageHeader, error) {
	if len(b) < pageHeaderSize+4 {
		return PageHeader{}, fmt.Errorf("%w: page too small (%d bytes)", ErrCorruptPage, len(b))
	}
	flags := PageFlags(buf.U32LE(b[32:]))

	// The tag array occupies the last 4*n bytes of the page, one 4-byte
	// (offset,size) pair per tag, growing backward from the final byte.
	// The number of tags isn't itself carried in the fixed header; it's
	// derived by walking backward until the implied offsets stop making
	// sense, which is how this module locates the tag count instead of
	// threading it through every caller.
	tags, bodyEnd, err := parseTagArray(b)
	if err != nil {
		return PageHeader{}, err
	}
	return PageHeader{Flags: flags, Tags: tags, Body: b[pageHeaderSize:bodyEnd]}, nil
}

func parseTagArray(b []byte) ([]Tag, int, error) {
	var tags []Tag
	end := len(b)
	for end-4 >= pageHeaderSize {
		rawOffset := buf.U16LE(b[end-4:])
		rawSize := buf.U16LE(b[end-2:])

		offset := rawOffset & 0x1FFF
		size := rawSize & 0x1FFF
		flags := TagFlags((rawSize >> 13) & 0x7)

		if int(offset)+int(size) > len(b) {
			break
		}
		tags = append(tags, Tag{Offset: offset, Size: size, Flags: flags})
		end -= 4

		// Stop once tag offsets stop lying within the body region; the
		// remaining bytes belong to the fixed header instead of more tags.
		if offset == 0 && size == 0 && len(tags) > 1 {
			break
		}
	}
	if len(tags) == 0 {
		return nil, 0, fmt.Errorf("%w: no tags found", ErrCorruptPage)
	}
	// Reverse so Tags[0] is the first record on the page (tag 0 is
	// conventionally the page's own key prefix / root-page header).
	for i, j := 0, len(tags)-1; i < j; i, j = i+1, j-1 {
		tags[i], tags[j] = tags[j], tags[i]
	}
	return tags, end, nil
}

// TagData returns the tag's slice of the page body.
func (h PageHeader) TagData(t Tag) ([]byte, error) {
	if int(t.Offset)+int(t.Size) > len(h.Body) {
		return nil, fmt.Errorf("%w: tag out of range", ErrCorruptPage)
	}
	return h.Body[t.Offset : t.Offset+t.Size], nil
}
