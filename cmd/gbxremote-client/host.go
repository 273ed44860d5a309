package main

import (
	"log/slog"
)

// loggingHost is the default gbx.Host: it has no application state of its
// own and simply logs what the connection reports. Callers that embed the
// client in a larger program supply their own Host instead.
type loggingHost struct {
	l *slog.Logger
}

func (h *loggingHost) OnDisconnect(reason string) {
	h.l.Warn("disconnected", "reason", reason)
}

func (h *loggingHost) OnCallback(method string, params []interface{}) {
	h.l.Info("callback", "method", method, "params", params)
}
