package gbx

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/gbxremote/gbxremote-go/internal/gbxerrors"
	"github.com/gbxremote/gbxremote-go/internal/metrics"
	"github.com/gbxremote/gbxremote-go/internal/rpcxml"
)

// receiveLoop is the only goroutine that reads conn and the only one that
// mutates recvBuffer/expectedLen. It classifies every complete frame it
// assembles until the socket errors or is closed out from under it.
func (c *Client) receiveLoop(conn net.Conn) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			metrics.AddBytesRead(n)
			c.feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.failConnectOnce(nil)
				c.teardown("end")
				return
			}
			metrics.IncTransportErrors()
			c.failConnectOnce(err)
			c.teardown(err.Error())
			return
		}
	}
}

// failConnectOnce reports a transport failure to a still-pending Connect
// call. Once the handshake has already completed this is a no-op (the
// completeConnect channel reference is gone).
func (c *Client) failConnectOnce(err error) {
	if err == nil {
		err = gbxerrors.ErrTransportClosed
	}
	c.completeConnect(err)
}

// feed appends chunk to recvBuffer and drains every complete frame it can
// assemble, in a loop rather than by recursing, so bursty traffic never
// grows the stack. Chunking is irrelevant to the result: the same N frames
// are classified regardless of how the caller split chunk boundaries.
func (c *Client) feed(chunk []byte) {
	c.recvBuffer = append(c.recvBuffer, chunk...)
	for {
		if c.expectedLen < 0 {
			if len(c.recvBuffer) < 4 {
				return
			}
			l := binary.LittleEndian.Uint32(c.recvBuffer[:4])
			if c.State() == Connected {
				c.expectedLen = int(l) + 4
			} else {
				c.expectedLen = int(l)
			}
			c.recvBuffer = c.recvBuffer[4:]
		}
		if len(c.recvBuffer) < c.expectedLen {
			return
		}
		frame := c.recvBuffer[:c.expectedLen]
		c.recvBuffer = c.recvBuffer[c.expectedLen:]
		c.expectedLen = -1
		c.dispatchFrame(frame)
	}
}

// dispatchFrame classifies one complete frame: handshake banner, method
// response, or server-initiated callback call.
func (c *Client) dispatchFrame(frame []byte) {
	if c.State() == Connecting {
		c.handleHandshakeFrame(frame)
		return
	}
	if len(frame) < 4 {
		if c.options.ShowErrors {
			c.logger.Warn("frame_too_short", "len", len(frame))
		}
		return
	}
	handle := binary.LittleEndian.Uint32(frame[:4])
	body := frame[4:]
	if handle >= firstHandle {
		c.handleResponse(handle, body)
	} else {
		c.handleCallback(handle, body)
	}
}

func (c *Client) handleHandshakeFrame(frame []byte) {
	if string(frame) == handshakeBanner {
		c.mu.Lock()
		c.state = Connected
		c.mu.Unlock()
		c.completeConnect(nil)
		return
	}
	metrics.IncHandshakeFailures()
	c.completeConnect(gbxerrors.ErrHandshakeFailed)
	c.teardown(gbxerrors.ErrHandshakeFailed.Error())
}

func (c *Client) handleResponse(handle uint32, body []byte) {
	value, fault, err := rpcxml.DeserializeMethodResponse(body)

	c.mu.Lock()
	var found bool
	if err != nil {
		found = c.pending.complete(handle, callResult{Err: err})
	} else {
		found = c.pending.complete(handle, callResult{Value: value, Fault: fault})
	}
	metrics.SetPending(len(c.pending))
	c.mu.Unlock()

	if err == nil {
		metrics.IncResponsesReceived()
		if fault != nil {
			metrics.IncFaults()
		}
	}
	if !found && c.options.ShowErrors {
		c.logger.Debug("response_no_waiter", "handle", handle)
	}
}

func (c *Client) handleCallback(handle uint32, body []byte) {
	method, params, err := rpcxml.DeserializeMethodCall(body)
	if err != nil {
		if c.options.ShowErrors {
			c.logger.Warn("callback_decode_error", "handle", handle, "error", err)
		}
		return
	}
	metrics.IncCallbacks()
	if c.host != nil {
		c.host.OnCallback(method, params)
	}
}
