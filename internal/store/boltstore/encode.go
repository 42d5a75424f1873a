package boltstore

import (
	"bytes"
	"encoding/binary"
)

// key = created unix nanos (8, big endian) + 0x00 + id, so a cursor walks
// records in creation order.
func makeOrderKey(createdUnixNano int64, id string) []byte {
	buf := make([]byte, 8, 8+1+len(id))
	binary.BigEndian.PutUint64(buf, uint64(createdUnixNano))
	buf = append(buf, 0x00)
	buf = append(buf, id...)
	return buf
}

func idFromOrderKey(k []byte) string {
	if len(k) < 8+2 {
		return ""
	}
	i := bytes.IndexByte(k[8:], 0x00)
	if i < 0 {
		return ""
	}
	return string(k[8+i+1:])
}
