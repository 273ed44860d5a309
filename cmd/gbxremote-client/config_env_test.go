package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	base := &appConfig{
		host:            "127.0.0.1",
		port:            5000,
		logFormat:       "text",
		logLevel:        "info",
		metricsAddr:     "",
		callTimeout:     10 * time.Second,
		connectTimeout:  5 * time.Second,
		showErrors:      false,
		throwErrors:     true,
		logMetricsEvery: 0,
	}

	os.Setenv("GBXREMOTE_CLIENT_PORT", "5001")
	os.Setenv("GBXREMOTE_CLIENT_SHOW_ERRORS", "true")
	os.Setenv("GBXREMOTE_CLIENT_CALL_TIMEOUT", "2s")
	os.Setenv("GBXREMOTE_CLIENT_LOG_METRICS_INTERVAL", "5s")
	t.Cleanup(func() {
		os.Unsetenv("GBXREMOTE_CLIENT_PORT")
		os.Unsetenv("GBXREMOTE_CLIENT_SHOW_ERRORS")
		os.Unsetenv("GBXREMOTE_CLIENT_CALL_TIMEOUT")
		os.Unsetenv("GBXREMOTE_CLIENT_LOG_METRICS_INTERVAL")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.port != 5001 {
		t.Fatalf("expected port override, got %d", base.port)
	}
	if !base.showErrors {
		t.Fatalf("expected showErrors true")
	}
	if base.callTimeout != 2*time.Second {
		t.Fatalf("expected callTimeout 2s got %v", base.callTimeout)
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	base := &appConfig{port: 5000}
	os.Setenv("GBXREMOTE_CLIENT_PORT", "5001")
	t.Cleanup(func() { os.Unsetenv("GBXREMOTE_CLIENT_PORT") })
	// Simulate user passed -port flag (so env should be ignored)
	if err := applyEnvOverrides(base, map[string]struct{}{"port": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.port != 5000 {
		t.Fatalf("expected port unchanged 5000 got %d", base.port)
	}
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	base := &appConfig{port: 5000}
	os.Setenv("GBXREMOTE_CLIENT_PORT", "notint")
	t.Cleanup(func() { os.Unsetenv("GBXREMOTE_CLIENT_PORT") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatalf("expected error for bad integer")
	}
}
