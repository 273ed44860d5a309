package gbx

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/gbxremote/gbxremote-go/internal/logging"
)

// frameBytes builds one outer frame: a 4-byte little-endian length prefix
// followed by payload.
func frameBytes(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// postHandshakeFrameBytes builds one post-handshake frame: length covers
// handle+body, per §6.
func postHandshakeFrameBytes(handle uint32, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(out[:4], uint32(4+len(body)))
	binary.LittleEndian.PutUint32(out[4:8], handle)
	copy(out[8:], body)
	return out
}

func newTestClient() *Client {
	c := New(nil, DefaultOptions())
	c.logger = logging.Discard()
	return c
}

func freshConnectingClient() *Client {
	c := newTestClient()
	c.state = Connecting
	c.connectCh = make(chan error, 1)
	c.expectedLen = -1
	return c
}

// chunked re-splits data into pieces of size n (last piece may be shorter).
func chunked(data []byte, n int) [][]byte {
	if n <= 0 {
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > 0 {
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

func TestFeed_HandshakeSuccess_AnyChunking(t *testing.T) {
	wire := frameBytes([]byte(handshakeBanner))
	for _, size := range []int{len(wire), 7, 3, 1} {
		c := freshConnectingClient()
		for _, chunk := range chunked(wire, size) {
			c.feed(chunk)
		}
		select {
		case err := <-c.connectCh:
			if err != nil {
				t.Fatalf("chunk size %d: connect err = %v, want nil", size, err)
			}
		default:
			t.Fatalf("chunk size %d: connect waiter never completed", size)
		}
		if c.State() != Connected {
			t.Fatalf("chunk size %d: state = %v, want Connected", size, c.State())
		}
	}
}

func TestFeed_HandshakeFailure(t *testing.T) {
	c := freshConnectingClient()
	var disconnected []string
	c.host = hostFunc{onDisconnect: func(r string) { disconnected = append(disconnected, r) }}

	wire := frameBytes([]byte("Hello"))
	c.feed(wire)

	select {
	case err := <-c.connectCh:
		if err == nil {
			t.Fatalf("connect err = nil, want handshake failure")
		}
	default:
		t.Fatalf("connect waiter never completed")
	}
	if c.State() != Disconnected {
		t.Fatalf("state = %v, want Disconnected", c.State())
	}
	if len(disconnected) != 1 || disconnected[0] == "" {
		t.Fatalf("OnDisconnect calls = %v, want exactly one reason", disconnected)
	}
}

const methodResponseWorld = `<?xml version="1.0"?><methodResponse><params><param><value><string>world</string></value></param></params></methodResponse>`

const methodCallPlayerConnect = `<?xml version="1.0"?><methodCall><methodName>PlayerConnect</methodName><params><param><value><string>login</string></value></param><param><value><boolean>0</boolean></value></param></params></methodCall>`

func TestFeed_ChunkIndependence_MultiFrame(t *testing.T) {
	resp := postHandshakeFrameBytes(firstHandle+1, []byte(methodResponseWorld))
	cb := postHandshakeFrameBytes(1, []byte(methodCallPlayerConnect))
	wire := append(append([]byte{}, resp...), cb...)

	for _, size := range []int{len(wire), 13, 5, 1} {
		c := newTestClient()
		c.state = Connected
		waiter := c.pending.register(firstHandle + 1)

		var callbacks []string
		c.host = hostFunc{onCallback: func(m string, _ []interface{}) { callbacks = append(callbacks, m) }}

		for _, chunk := range chunked(wire, size) {
			c.feed(chunk)
		}

		select {
		case res := <-waiter:
			if res.Err != nil {
				t.Fatalf("chunk size %d: response err = %v", size, res.Err)
			}
			if res.Value != "world" {
				t.Fatalf("chunk size %d: response value = %v, want world", size, res.Value)
			}
		case <-time.After(time.Second):
			t.Fatalf("chunk size %d: response waiter never completed", size)
		}
		if len(callbacks) != 1 || callbacks[0] != "PlayerConnect" {
			t.Fatalf("chunk size %d: callbacks = %v, want [PlayerConnect]", size, callbacks)
		}
	}
}

func TestDispatchFrame_ResponseWithNoWaiterIsNoop(t *testing.T) {
	c := newTestClient()
	c.state = Connected
	frame := postHandshakeFrameBytes(firstHandle+99, []byte(methodResponseWorld))[4:]
	c.dispatchFrame(frame) // must not panic
	if len(c.pending) != 0 {
		t.Fatalf("pending table mutated by unmatched response: %v", c.pending)
	}
}

// hostFunc adapts plain functions to the Host interface for tests.
type hostFunc struct {
	onDisconnect func(string)
	onCallback   func(string, []interface{})
}

func (h hostFunc) OnDisconnect(reason string) {
	if h.onDisconnect != nil {
		h.onDisconnect(reason)
	}
}

func (h hostFunc) OnCallback(method string, params []interface{}) {
	if h.onCallback != nil {
		h.onCallback(method, params)
	}
}
