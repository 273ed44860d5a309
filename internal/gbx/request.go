package gbx

import (
	"context"
	"fmt"
	"net"

	"github.com/gbxremote/gbxremote-go/internal/gbxerrors"
	"github.com/gbxremote/gbxremote-go/internal/metrics"
	"github.com/gbxremote/gbxremote-go/internal/rpcxml"
)

// MethodCall is one element of a Multicall batch.
type MethodCall struct {
	Method string
	Params []interface{}
}

// Call encodes method(params...), writes it framed with a freshly
// allocated handle, and blocks until the matching response arrives or ctx
// is done. While disconnected it returns ErrNotConnected without touching
// the socket.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	res, err := c.doCall(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return c.resolveResult(method, res)
}

// doCall is the shared encode/allocate/write/await path used by Call,
// Multicall and CallScript. It returns the raw callResult so each caller
// can apply its own fault-handling policy.
func (c *Client) doCall(ctx context.Context, method string, params []interface{}) (callResult, error) {
	if c.State() != Connected {
		return callResult{}, gbxerrors.ErrNotConnected
	}

	body, err := rpcxml.SerializeMethodCall(method, params)
	if err != nil {
		return callResult{}, fmt.Errorf("gbxremote: encode %s: %w", method, err)
	}
	if len(body)+8 > maxFrameSize {
		return callResult{}, fmt.Errorf("%w: %s (%d bytes)", gbxerrors.ErrOversizeRequest, method, len(body)+8)
	}

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return callResult{}, gbxerrors.ErrNotConnected
	}
	handle := c.handles.allocate()
	if _, collide := c.pending[handle]; collide {
		c.mu.Unlock()
		c.teardown(gbxerrors.ErrHandleCollision.Error())
		return callResult{}, gbxerrors.ErrHandleCollision
	}
	waiter := c.pending.register(handle)
	metrics.SetPending(len(c.pending))
	conn := c.conn
	c.mu.Unlock()

	if err := c.writeFrame(conn, handle, body); err != nil {
		c.mu.Lock()
		c.pending.cancel(handle)
		metrics.SetPending(len(c.pending))
		c.mu.Unlock()
		return callResult{}, err
	}
	metrics.IncRequestsSent()

	select {
	case res := <-waiter:
		return res, nil
	case <-ctx.Done():
		c.mu.Lock()
		c.pending.cancel(handle)
		metrics.SetPending(len(c.pending))
		c.mu.Unlock()
		return callResult{}, fmt.Errorf("%w: %s", gbxerrors.ErrCancelled, method)
	}
}

func (c *Client) writeFrame(conn net.Conn, handle uint32, body []byte) error {
	frame := EncodeRequest(handle, body)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	n, err := conn.Write(frame)
	if err != nil {
		return fmt.Errorf("gbxremote: write: %w", err)
	}
	metrics.AddBytesWritten(n)
	return nil
}

// resolveResult applies ShowErrors/ThrowErrors policy to a completed call.
func (c *Client) resolveResult(method string, res callResult) (interface{}, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Fault != nil {
		if c.options.ShowErrors {
			c.logger.Warn("call_fault", "method", method, "fault_code", res.Fault.Code, "fault_string", res.Fault.String)
		}
		if c.options.ThrowErrors {
			return nil, res.Fault
		}
		return nil, nil
	}
	return res.Value, nil
}

// Send writes method(params...) without registering a waiter; any response
// that later arrives for its handle is silently discarded by the pending
// table lookup. It never blocks on a server reply.
func (c *Client) Send(method string, params ...interface{}) error {
	if c.State() != Connected {
		return gbxerrors.ErrNotConnected
	}

	body, err := rpcxml.SerializeMethodCall(method, params)
	if err != nil {
		return fmt.Errorf("gbxremote: encode %s: %w", method, err)
	}
	if len(body)+8 > maxFrameSize {
		return fmt.Errorf("%w: %s (%d bytes)", gbxerrors.ErrOversizeRequest, method, len(body)+8)
	}

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return gbxerrors.ErrNotConnected
	}
	handle := c.handles.allocate()
	conn := c.conn
	c.mu.Unlock()

	if err := c.writeFrame(conn, handle, body); err != nil {
		return err
	}
	metrics.IncRequestsSent()
	return nil
}

// Multicall batches calls into a single system.multicall request and
// returns each sub-call's first result value, in input order. A fault on
// an individual sub-call is carried inline in its slot, as the value the
// codec decoded for it, rather than failing the whole batch; it is not
// converted to an *rpcxml.Fault.
func (c *Client) Multicall(ctx context.Context, calls []MethodCall) ([]interface{}, error) {
	batch := make([]interface{}, len(calls))
	for i, mc := range calls {
		batch[i] = map[string]interface{}{
			"methodName": mc.Method,
			"params":     mc.Params,
		}
	}
	res, err := c.doCall(ctx, "system.multicall", []interface{}{batch})
	if err != nil {
		return nil, err
	}
	value, err := c.resolveResult("system.multicall", res)
	if err != nil {
		return nil, err
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("gbxremote: multicall: unexpected response shape %T", value)
	}
	out := make([]interface{}, len(raw))
	for i, entry := range raw {
		slot, ok := entry.([]interface{})
		if !ok || len(slot) == 0 {
			out[i] = entry
			continue
		}
		out[i] = slot[0]
	}
	return out, nil
}

// CallScript is equivalent to Call(ctx, "TriggerModeScriptEventArray",
// event, params).
func (c *Client) CallScript(ctx context.Context, event string, params ...interface{}) (interface{}, error) {
	return c.Call(ctx, "TriggerModeScriptEventArray", event, params)
}
