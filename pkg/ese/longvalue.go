package ese

import (
	"github.com/forensic-go/windecode/internal/buf"
)

// LongValueKey identifies one long-value container: the reversed
// big-endian 8-byte key stored in the owning row, independent of chunk
// index.
type LongValueKey string

// longValueKeyFromRaw reverses the bytes of a raw long-value column (the
// key is stored big-endian on disk but referenced little-endian in rows)
// to produce the lookup key used against the long-value tree's own rows.
func longValueKeyFromRaw(raw []byte) LongValueKey {
	rev := make([]byte, len(raw))
	for i, b := range raw {
		rev[len(raw)-1-i] = b
	}
	return LongValueKey(rev)
}

// LongValues indexes the long-value tree's leaf rows by key, reassembling
// chunks in order. Each long-value leaf row's key is an 8-byte big-endian
// value id followed by a 4-byte big-endian chunk index; rows sharing a
// value id concatenate in chunk-index order.
type LongValues struct {
	chunks map[LongValueKey]map[uint32][]byte
}

// NewLongValues builds an index from long-value tree leaf rows, each given
// as (keyBytes, data).
func NewLongValues(leaves [][2][]byte) LongValues {
	lv := LongValues{chunks: map[LongValueKey]map[uint32][]byte{}}
	for _, kv := range leaves {
		key, data := kv[0], kv[1]
		if len(key) < 12 {
			continue
		}
		valueID := LongValueKey(key[:8])
		idx := buf.U32BE(key[8:12])
		if lv.chunks[valueID] == nil {
			lv.chunks[valueID] = map[uint32][]byte{}
		}
		lv.chunks[valueID][idx] = data
	}
	return lv
}

// Get reassembles the full byte sequence for a long-value key, or reports
// ok=false if no chunks were found.
func (lv LongValues) Get(raw []byte) ([]byte, bool) {
	key := longValueKeyFromRaw(raw)
	chunks, ok := lv.chunks[key]
	if !ok || len(chunks) == 0 {
		return nil, false
	}
	var out []byte
	for i := uint32(0); ; i++ {
		c, ok := chunks[i]
		if !ok {
			break
		}
		out = append(out, c...)
	}
	return out, true
}
