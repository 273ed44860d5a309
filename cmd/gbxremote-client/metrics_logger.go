package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gbxremote/gbxremote-go/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"requests_sent", snap.RequestsSent,
					"responses_received", snap.ResponsesReceived,
					"faults", snap.Faults,
					"callbacks", snap.Callbacks,
					"handshake_failures", snap.HandshakeFailures,
					"transport_errors", snap.TransportErrors,
					"bytes_read", snap.BytesRead,
					"bytes_written", snap.BytesWritten,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
