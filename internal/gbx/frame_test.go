package gbx

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func mkBody(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func TestEncodeRequest_RoundTrip(t *testing.T) {
	cases := []struct {
		handle uint32
		bodyN  int
	}{
		{firstHandle, 0},
		{firstHandle + 1, 16},
		{wrapThreshold - 1, 4096},
		{0x80001234, 1},
	}
	for _, tc := range cases {
		body := mkBody(tc.bodyN)
		wire := EncodeRequest(tc.handle, body)

		if len(wire) != 8+len(body) {
			t.Fatalf("wire len = %d, want %d", len(wire), 8+len(body))
		}
		declared := DecodePrefix(wire)
		if int(declared) != 4+len(body) {
			t.Fatalf("declared length = %d, want %d", declared, 4+len(body))
		}
		gotHandle, gotBody := DecodeRequest(wire[4:])
		if gotHandle != tc.handle {
			t.Fatalf("handle = %#x, want %#x", gotHandle, tc.handle)
		}
		if !bytes.Equal(gotBody, body) {
			t.Fatalf("body mismatch for handle %#x", tc.handle)
		}
	}
}

func TestEncodeRequest_SizeGuardBoundary(t *testing.T) {
	// A body that brings the total framing exactly to the 4 MiB boundary
	// must still round-trip; the size guard itself lives in request.go,
	// not in the codec.
	body := mkBody(maxFrameSize - 8)
	wire := EncodeRequest(firstHandle, body)
	if len(wire) != maxFrameSize {
		t.Fatalf("wire len = %d, want %d", len(wire), maxFrameSize)
	}
}
