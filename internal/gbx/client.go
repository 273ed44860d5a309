// Package gbx is the GBXRemote 2 protocol engine: framing, handshake,
// handle allocation, response correlation and the request API, all built
// around a single persistent TCP connection.
package gbx

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gbxremote/gbxremote-go/internal/gbxerrors"
	"github.com/gbxremote/gbxremote-go/internal/logging"
	"github.com/gbxremote/gbxremote-go/internal/metrics"
)

// State is the client's connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// handshakeBanner is the exact ASCII payload the server sends as its first
// frame; anything else fails the handshake.
const handshakeBanner = "GBXRemote 2"

// maxFrameSize bounds a client-originated request including its 8-byte
// framing (length + handle).
const maxFrameSize = 4 * 1024 * 1024

// Host receives the two notifications the core never retries or buffers:
// each is delivered at most once per event.
type Host interface {
	OnDisconnect(reason string)
	OnCallback(method string, params []interface{})
}

// Options tune how Call/Multicall/CallScript surface per-request failures.
type Options struct {
	// ShowErrors logs faults and decode errors through the client's logger.
	ShowErrors bool
	// ThrowErrors returns faults as a non-nil error. When false, a nil
	// value/error pair is returned instead and the failure is only visible
	// via ShowErrors logging.
	ThrowErrors bool
}

// DefaultOptions matches the source client's defaults.
func DefaultOptions() Options {
	return Options{ShowErrors: false, ThrowErrors: true}
}

// Client is a single GBXRemote 2 session: one TCP connection, one
// handshake, at most one outstanding waiter per handle.
type Client struct {
	host    Host
	options Options
	logger  *slog.Logger

	mu        sync.Mutex // guards state, conn, handles, pending, connectCh
	state     State
	conn      net.Conn
	handles   *handleAllocator
	pending   pendingTable
	connectCh chan error

	writeMu sync.Mutex // serializes socket writes

	// recvBuffer/expectedLen are owned exclusively by the receive loop
	// goroutine; no other goroutine may touch them.
	recvBuffer  []byte
	expectedLen int // -1 means "length prefix not yet read"
}

// New constructs a Client bound to host. Connect must be called before any
// request method will do anything but return ErrNotConnected.
func New(host Host, opts Options) *Client {
	return &Client{
		host:        host,
		options:     opts,
		logger:      logging.L(),
		handles:     newHandleAllocator(),
		pending:     make(pendingTable),
		expectedLen: -1,
		state:       Disconnected,
	}
}

// SetLogger overrides the package logger with l.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials host:port, performs the GBXRemote 2 handshake, and starts
// the receive loop. It blocks until the handshake completes (true), fails
// (false, non-nil error) or ctx is done first.
func (c *Client) Connect(ctx context.Context, host string, port int) (bool, error) {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 5000
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, fmt.Errorf("gbxremote: dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(30 * time.Second)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = Connecting
	c.connectCh = make(chan error, 1)
	c.recvBuffer = nil
	c.expectedLen = -1
	connectCh := c.connectCh
	c.mu.Unlock()

	go c.receiveLoop(conn)

	select {
	case err := <-connectCh:
		if err != nil {
			return false, err
		}
		c.logger.Info("handshake_ok", "addr", addr)
		return true, nil
	case <-ctx.Done():
		c.teardown("disconnect")
		return false, ctx.Err()
	}
}

// Disconnect tears the session down synchronously: the socket is closed,
// pending waiters are rejected with a transport error, and the host is
// notified. It always succeeds, even if already disconnected.
func (c *Client) Disconnect() error {
	c.teardown("disconnect")
	return nil
}

// teardown is the single error-path/disconnect-path exit; safe to call more
// than once and from any goroutine.
func (c *Client) teardown(reason string) {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.state = Disconnected
	c.conn = nil
	c.pending.drain(fmt.Errorf("%w: %s", gbxerrors.ErrTransportClosed, reason))
	metrics.SetPending(0)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.logger.Info("disconnected", "reason", reason)
	if c.host != nil {
		c.host.OnDisconnect(reason)
	}
}

// completeConnect delivers err (nil on success) to whoever is awaiting
// Connect, exactly once; later calls after the first are no-ops.
func (c *Client) completeConnect(err error) {
	c.mu.Lock()
	ch := c.connectCh
	c.connectCh = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- err
	}
}
