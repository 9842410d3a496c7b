package ost

import (
	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/record"
)

// Well-known MAPI property tags used for folder/message/attachment
// reconstruction. Named properties are resolved separately via
// ParseNameIDMap and are out of scope here.
const (
	PidTagDisplayName         uint16 = 0x3001
	PidTagSubject             uint16 = 0x0037
	PidTagBody                uint16 = 0x1000
	PidTagMessageDeliveryTime uint16 = 0x0E06
	PidTagSenderName          uint16 = 0x0C1A
	PidTagContentCount        uint16 = 0x3602
	PidTagContentUnreadCount  uint16 = 0x3603

	PidTagRecipientType uint16 = 0x0C15
	PidTagSmtpAddress   uint16 = 0x39FE

	PidTagAttachFilename   uint16 = 0x3704
	PidTagAttachMimeTag    uint16 = 0x370E
	PidTagAttachExtension  uint16 = 0x3703
	PidTagAttachMethod     uint16 = 0x3705
	PidTagAttachSize       uint16 = 0x0E20
	PidTagAttachDataBinary uint16 = 0x3701

	// PidTagLtpRowID carries the owning node id in hierarchy, contents,
	// and attachment table rows.
	PidTagLtpRowID uint16 = 0x67F2
)

// AttachMethod enumerates PidTagAttachMethod values.
type AttachMethod int32

const (
	AttachByValue         AttachMethod = 1
	AttachByReference     AttachMethod = 2
	AttachEmbeddedMessage AttachMethod = 5
	AttachOLE             AttachMethod = 6
)

// Folder is a reconstructed message folder: its own metadata, preview rows
// for its contents, and the node ids of child folders.
type Folder struct {
	Name           string
	ContentCount   int32
	UnreadCount    int32
	ChildFolderIDs []uint32
	MessageIDs     []uint32
	IsSearchFolder bool
}

// Recipient is one row of a message's RecipientTable.
type Recipient struct {
	Type int32
	Name string
	SMTP string
}

// Attachment is a reconstructed attachment: metadata plus, for
// AttachByValue, its inline bytes.
type Attachment struct {
	Name      string
	MimeTag   string
	Extension string
	Method    AttachMethod
	Size      int32
	Data      []byte
}

// Message is a reconstructed Message node: PC-derived fields plus its
// recipient and attachment tables.
type Message struct {
	Subject     string
	Body        string
	Delivered   string
	SenderName  string
	Recipients  []Recipient
	Attachments []Attachment
}

// propString decodes a PC entry's value as either Unicode (PropString) or
// 8-bit code-page text (PropString8), matching whichever the property
// actually carries.
func propString(props []PropEntry, id uint16) string {
	for _, p := range props {
		if p.ID != id {
			continue
		}
		switch p.Type &^ multiValueBit {
		case PropString:
			return record.UTF16LEToString(p.Data)
		case PropString8:
			s, err := record.CodePageToString(p.Data)
			if err != nil {
				return ""
			}
			return s
		}
	}
	return ""
}

func propInt32(props []PropEntry, id uint16) int32 {
	for _, p := range props {
		if p.ID == id && len(p.Data) >= 4 {
			return int32(uint32(p.Data[0]) | uint32(p.Data[1])<<8 | uint32(p.Data[2])<<16 | uint32(p.Data[3])<<24)
		}
	}
	return 0
}

func propFiletime(props []PropEntry, id uint16) string {
	for _, p := range props {
		if p.ID == id && p.Type&^multiValueBit == PropTime && len(p.Data) >= 8 {
			return record.FiletimeToISO8601(buf.U64LE(p.Data))
		}
	}
	return ""
}

// BuildFolder assembles a Folder from a NormalFolder node's Property
// Context and its HierarchyTable / ContentsTable siblings.
func BuildFolder(folderPC []PropEntry, hierarchy, contents TableContext, hierarchyRows, contentsRows [][]byte) Folder {
	f := Folder{
		Name:         propString(folderPC, PidTagDisplayName),
		ContentCount: propInt32(folderPC, PidTagContentCount),
		UnreadCount:  propInt32(folderPC, PidTagContentUnreadCount),
	}

	nidCol, ok := findColumn(hierarchy, PidTagLtpRowID)
	if ok {
		for _, row := range hierarchyRows {
			if b, present := CellBytes(row, nidCol, hierarchy.CEBSize()); present && len(b) >= 4 {
				f.ChildFolderIDs = append(f.ChildFolderIDs, buf.U32LE(b))
			}
		}
	}
	nidCol, ok = findColumn(contents, PidTagLtpRowID)
	if ok {
		for _, row := range contentsRows {
			if b, present := CellBytes(row, nidCol, contents.CEBSize()); present && len(b) >= 4 {
				f.MessageIDs = append(f.MessageIDs, buf.U32LE(b))
			}
		}
	}
	return f
}

// BuildMessage assembles a Message from its node's PC plus the already
// decoded recipient and attachment-preview rows.
func BuildMessage(msgPC []PropEntry, recipients []Recipient, attachments []Attachment) Message {
	return Message{
		Subject:     propString(msgPC, PidTagSubject),
		Body:        propString(msgPC, PidTagBody),
		Delivered:   propFiletime(msgPC, PidTagMessageDeliveryTime),
		SenderName:  propString(msgPC, PidTagSenderName),
		Recipients:  recipients,
		Attachments: attachments,
	}
}

// BuildRecipient decodes one RecipientTable row via its column layout.
func BuildRecipient(tc TableContext, row []byte) Recipient {
	r := Recipient{}
	cebSize := tc.CEBSize()
	if col, ok := findColumn(tc, PidTagRecipientType); ok {
		if b, present := CellBytes(row, col, cebSize); present && len(b) >= 4 {
			r.Type = int32(buf.U32LE(b))
		}
	}
	if col, ok := findColumn(tc, PidTagDisplayName); ok {
		if b, present := CellBytes(row, col, cebSize); present {
			r.Name = decodeColumnText(col, b)
		}
	}
	if col, ok := findColumn(tc, PidTagSmtpAddress); ok {
		if b, present := CellBytes(row, col, cebSize); present {
			r.SMTP = decodeColumnText(col, b)
		}
	}
	return r
}

// BuildAttachment assembles attachment metadata from its subnode PC. Only
// AttachByValue attachments carry usable inline data.
func BuildAttachment(attPC []PropEntry) Attachment {
	a := Attachment{
		Name:      propString(attPC, PidTagAttachFilename),
		MimeTag:   propString(attPC, PidTagAttachMimeTag),
		Extension: propString(attPC, PidTagAttachExtension),
		Method:    AttachMethod(propInt32(attPC, PidTagAttachMethod)),
		Size:      propInt32(attPC, PidTagAttachSize),
	}
	if a.Method == AttachByValue {
		for _, p := range attPC {
			if p.ID == PidTagAttachDataBinary {
				a.Data = p.Data
			}
		}
	}
	return a
}

func findColumn(tc TableContext, id uint16) (ColumnDesc, bool) {
	for _, c := range tc.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDesc{}, false
}

func decodeColumnText(col ColumnDesc, b []byte) string {
	if col.Type&^multiValueBit == PropString {
		return record.UTF16LEToString(b)
	}
	s, err := record.CodePageToString(b)
	if err != nil {
		return ""
	}
	return s
}
