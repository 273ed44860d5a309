// Package gbxerrors defines the sentinel errors shared across the client so
// callers can classify failures with errors.Is instead of string matching.
package gbxerrors

import "errors"

var (
	// ErrNotConnected is returned by Call/Send/Multicall/CallScript when the
	// session is not in the Connected state.
	ErrNotConnected = errors.New("gbxremote: not connected")
	// ErrHandshakeFailed is the reason reported to the host when the server's
	// banner does not match the expected "GBXRemote 2" string.
	ErrHandshakeFailed = errors.New("GBXRemote 2 protocol not supported")
	// ErrOversizeRequest is returned when an encoded request plus its 8-byte
	// framing would exceed the 4 MiB wire limit.
	ErrOversizeRequest = errors.New("gbxremote: request exceeds 4 MiB frame limit")
	// ErrHandleCollision is fatal: the handle allocator wrapped onto a handle
	// that still has an outstanding waiter.
	ErrHandleCollision = errors.New("gbxremote: handle allocator collided with outstanding request")
	// ErrTransportClosed is delivered to waiters still pending when the
	// connection drops, so callers never block past a disconnect.
	ErrTransportClosed = errors.New("gbxremote: transport closed")
	// ErrCancelled is returned by Call/Multicall when the caller's context is
	// done before a response arrives.
	ErrCancelled = errors.New("gbxremote: call cancelled")
)
