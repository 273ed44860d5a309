package gbx

import "encoding/binary"

// EncodeRequest produces the post-handshake wire framing for a
// client-originated request: a 4-byte little-endian length covering the
// handle and body, the 4-byte little-endian handle, then body.
func EncodeRequest(handle uint32, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(out[0:4], uint32(4+len(body)))
	binary.LittleEndian.PutUint32(out[4:8], handle)
	copy(out[8:], body)
	return out
}

// DecodePrefix reads the first 4 bytes of buf as a little-endian length.
// Callers must ensure len(buf) >= 4 before calling.
func DecodePrefix(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[:4])
}

// DecodeRequest is the inverse of EncodeRequest, used by tests to assert
// the framing round-trip: it splits a post-handshake frame (without its
// outer length prefix) into handle and body.
func DecodeRequest(frame []byte) (handle uint32, body []byte) {
	handle = binary.LittleEndian.Uint32(frame[:4])
	body = frame[4:]
	return handle, body
}
