package gbx

import "github.com/gbxremote/gbxremote-go/internal/rpcxml"

// callResult is the outcome delivered to a waiter. Exactly one of Fault or
// Err is set on a failure; both are nil on success.
type callResult struct {
	Value interface{}
	Fault *rpcxml.Fault
	Err   error
}

// pendingTable maps a client-minted handle to the one-shot channel its
// caller is awaiting. It holds no lock of its own: the owning Client's
// mutex guards every access, since handle allocation and waiter
// registration must be atomic with each other to detect wrap collisions.
type pendingTable map[uint32]chan callResult

// register creates and stores a fresh one-shot waiter for handle. The
// caller must not already have a waiter registered under handle.
func (p pendingTable) register(handle uint32) chan callResult {
	ch := make(chan callResult, 1)
	p[handle] = ch
	return ch
}

// complete resolves and removes the waiter for handle, if one is
// registered. It reports whether a waiter was found; a response with no
// registered waiter is a no-op by design (Send-initiated requests, or a
// cancelled Call).
func (p pendingTable) complete(handle uint32, res callResult) bool {
	ch, ok := p[handle]
	if !ok {
		return false
	}
	delete(p, handle)
	ch <- res
	return true
}

// drain completes every outstanding waiter with err and empties the table.
// Used on any transition out of Connected so callers never block past a
// disconnect.
func (p pendingTable) drain(err error) {
	for h, ch := range p {
		ch <- callResult{Err: err}
		delete(p, h)
	}
}

// cancel removes handle's waiter without sending anything. Used when a
// caller stops waiting on its own (context cancellation) or when a write
// failed after the waiter was registered.
func (p pendingTable) cancel(handle uint32) {
	delete(p, handle)
}
