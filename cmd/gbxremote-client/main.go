package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gbxremote/gbxremote-go/internal/gbx"
	"github.com/gbxremote/gbxremote-go/internal/metrics"
)

// Helper implementations moved to dedicated files: version.go, config.go,
// logger.go, host.go, metrics_logger.go.

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("gbxremote-client %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}

	l := setupLogger(cfg.logFormat, cfg.logLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	host := &loggingHost{l: l}
	opts := gbx.DefaultOptions()
	opts.ShowErrors = cfg.showErrors
	opts.ThrowErrors = cfg.throwErrors
	client := gbx.New(host, opts)
	client.SetLogger(l)

	if cfg.metricsAddr != "" {
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.connectTimeout)
	ok, err := client.Connect(connectCtx, cfg.host, cfg.port)
	connectCancel()
	if err != nil || !ok {
		l.Error("connect_failed", "host", cfg.host, "port", cfg.port, "error", err)
		os.Exit(1)
	}
	l.Info("connected", "host", cfg.host, "port", cfg.port)

	callCtx, callCancel := context.WithTimeout(ctx, cfg.callTimeout)
	serverVersion, err := client.Call(callCtx, "GetVersion")
	callCancel()
	if err != nil {
		l.Warn("get_version_failed", "error", err)
	} else {
		l.Info("server_version", "result", serverVersion)
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	_ = client.Disconnect()
	wg.Wait()
}
