package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func utf16LE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func i32le(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestPropStringUnicodeAndCodePage(t *testing.T) {
	props := []PropEntry{
		{ID: PidTagDisplayName, Type: PropString, Data: utf16LE("Inbox")},
	}
	assert.Equal(t, "Inbox", propString(props, PidTagDisplayName))

	props8 := []PropEntry{
		{ID: PidTagDisplayName, Type: PropString8, Data: []byte("Inbox8\x00")},
	}
	assert.Equal(t, "Inbox8", propString(props8, PidTagDisplayName))
}

func TestPropInt32(t *testing.T) {
	props := []PropEntry{{ID: PidTagContentCount, Data: i32le(42)}}
	assert.EqualValues(t, 42, propInt32(props, PidTagContentCount))
	assert.EqualValues(t, 0, propInt32(props, PidTagContentUnreadCount))
}

func TestBuildMessageAndAttachment(t *testing.T) {
	msgPC := []PropEntry{
		{ID: PidTagSubject, Type: PropString, Data: utf16LE("hello")},
		{ID: PidTagSenderName, Type: PropString, Data: utf16LE("alice")},
	}
	recipients := []Recipient{{Name: "bob"}}
	attPC := []PropEntry{
		{ID: PidTagAttachFilename, Type: PropString, Data: utf16LE("a.txt")},
		{ID: PidTagAttachMethod, Data: i32le(int32(AttachByValue))},
		{ID: PidTagAttachDataBinary, Data: []byte("payload")},
	}
	att := BuildAttachment(attPC)
	assert.Equal(t, "a.txt", att.Name)
	assert.Equal(t, AttachByValue, att.Method)
	assert.Equal(t, []byte("payload"), att.Data)

	msg := BuildMessage(msgPC, recipients, []Attachment{att})
	assert.Equal(t, "hello", msg.Subject)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Len(t, msg.Attachments, 1)
}

func TestBuildAttachmentByReferenceHasNoData(t *testing.T) {
	attPC := []PropEntry{
		{ID: PidTagAttachMethod, Data: i32le(int32(AttachByReference))},
		{ID: PidTagAttachDataBinary, Data: []byte("should-not-appear")},
	}
	att := BuildAttachment(attPC)
	assert.Nil(t, att.Data)
}

func TestFindColumnAndCellBytes(t *testing.T) {
	tc := TableContext{Columns: []ColumnDesc{
		{ID: PidTagRecipientType, ByteOffset: 1, Size: 4, InCEB: 0},
	}}
	col, ok := findColumn(tc, PidTagRecipientType)
	assert.True(t, ok)
	row := []byte{0x01, 7, 0, 0, 0}
	b, present := CellBytes(row, col, 1)
	assert.True(t, present)
	assert.Equal(t, []byte{7, 0, 0, 0}, b)
}
