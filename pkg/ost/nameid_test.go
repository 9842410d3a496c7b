package ost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNameIDMapNumericAndString(t *testing.T) {
	// entry 1: numeric LID 0x1234, ephemeral propIdx 5 -> PropID 0x8005
	entry1 := []byte{0x34, 0x12, 0x00, 0x00, 0x00, 0x00, 0x05, 0x00}

	// entry 2: named string at string-stream offset 0, propIdx 9 -> PropID 0x8009
	// wGuid = 1 (bit0 set = named) | (guidIdx<<1)
	entry2 := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x09, 0x00}

	entries := append(append([]byte{}, entry1...), entry2...)

	name := []byte{0x48, 0x00, 0x69, 0x00} // "Hi" UTF-16LE
	strings := make([]byte, 4+len(name))
	putU32(strings, uint32(len(name)))
	copy(strings[4:], name)

	props := []PropEntry{
		{ID: propNameidStreamEntry, Data: entries},
		{ID: propNameidStreamString, Data: strings},
	}

	m := ParseNameIDMap(props)

	numeric, ok := m[0x8005]
	if !ok {
		t.Fatal("numeric entry missing")
	}
	assert.False(t, numeric.IsNamed)
	assert.EqualValues(t, 0x1234, numeric.NumericID)

	named, ok := m[0x8009]
	if !ok {
		t.Fatal("named entry missing")
	}
	assert.True(t, named.IsNamed)
	assert.Equal(t, "Hi", named.Name)
}
