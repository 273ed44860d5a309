// Package metrics instruments the GBXRemote client with Prometheus counters
// and gauges, plus a cheap local mirror for periodic structured-log
// summaries when no Prometheus scraper is in the picture.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/gbxremote/gbxremote-go/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_requests_sent_total",
		Help: "Total method-call requests written to the socket (call, multicall, send, callScript).",
	})
	ResponsesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_responses_received_total",
		Help: "Total method-response frames decoded, whether or not a waiter was registered for the handle.",
	})
	FaultsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_faults_received_total",
		Help: "Total XML-RPC faults returned by the server.",
	})
	CallbacksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_callbacks_received_total",
		Help: "Total server-initiated callback frames delivered to the host.",
	})
	HandshakeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_handshake_failures_total",
		Help: "Total handshakes rejected due to banner mismatch.",
	})
	TransportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_transport_errors_total",
		Help: "Total socket-level errors that tore down the session.",
	})
	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_bytes_read_total",
		Help: "Total bytes read from the socket.",
	})
	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbxremote_bytes_written_total",
		Help: "Total bytes written to the socket.",
	})
	PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gbxremote_pending_requests",
		Help: "Current number of requests awaiting a response.",
	})
)

// Local atomic mirrors, cheap to read for periodic log summaries without
// touching the Prometheus registry.
var (
	localRequestsSent      uint64
	localResponsesReceived uint64
	localFaults            uint64
	localCallbacks         uint64
	localHandshakeFail     uint64
	localTransportErrors   uint64
	localBytesRead         uint64
	localBytesWritten      uint64
)

// Snapshot is a point-in-time copy of the local counters.
type Snapshot struct {
	RequestsSent      uint64
	ResponsesReceived uint64
	Faults            uint64
	Callbacks         uint64
	HandshakeFailures uint64
	TransportErrors   uint64
	BytesRead         uint64
	BytesWritten      uint64
}

// Snap returns the current Snapshot.
func Snap() Snapshot {
	return Snapshot{
		RequestsSent:      atomic.LoadUint64(&localRequestsSent),
		ResponsesReceived: atomic.LoadUint64(&localResponsesReceived),
		Faults:            atomic.LoadUint64(&localFaults),
		Callbacks:         atomic.LoadUint64(&localCallbacks),
		HandshakeFailures: atomic.LoadUint64(&localHandshakeFail),
		TransportErrors:   atomic.LoadUint64(&localTransportErrors),
		BytesRead:         atomic.LoadUint64(&localBytesRead),
		BytesWritten:      atomic.LoadUint64(&localBytesWritten),
	}
}

func IncRequestsSent() {
	RequestsSent.Inc()
	atomic.AddUint64(&localRequestsSent, 1)
}

func IncResponsesReceived() {
	ResponsesReceived.Inc()
	atomic.AddUint64(&localResponsesReceived, 1)
}

func IncFaults() {
	FaultsReceived.Inc()
	atomic.AddUint64(&localFaults, 1)
}

func IncCallbacks() {
	CallbacksReceived.Inc()
	atomic.AddUint64(&localCallbacks, 1)
}

func IncHandshakeFailures() {
	HandshakeFailures.Inc()
	atomic.AddUint64(&localHandshakeFail, 1)
}

func IncTransportErrors() {
	TransportErrors.Inc()
	atomic.AddUint64(&localTransportErrors, 1)
}

func AddBytesRead(n int) {
	BytesRead.Add(float64(n))
	atomic.AddUint64(&localBytesRead, uint64(n))
}

func AddBytesWritten(n int) {
	BytesWritten.Add(float64(n))
	atomic.AddUint64(&localBytesWritten, uint64(n))
}

func SetPending(n int) {
	PendingRequests.Set(float64(n))
}

// StartHTTP serves Prometheus metrics at /metrics on addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}
