package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	host            string
	port            int
	logFormat       string
	logLevel        string
	metricsAddr     string
	callTimeout     time.Duration
	connectTimeout  time.Duration
	showErrors      bool
	throwErrors     bool
	logMetricsEvery time.Duration
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	host := flag.String("host", "127.0.0.1", "Dedicated server host")
	port := flag.Int("port", 5000, "Dedicated server GBXRemote port")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9101); empty disables")
	callTimeout := flag.Duration("call-timeout", 10*time.Second, "Per-call timeout applied to Call/Multicall")
	connectTimeout := flag.Duration("connect-timeout", 5*time.Second, "Handshake/connect timeout")
	showErrors := flag.Bool("show-errors", false, "Log fault responses instead of silently discarding them")
	throwErrors := flag.Bool("throw-errors", true, "Return fault responses as errors from Call/Multicall")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.host = *host
	cfg.port = *port
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.callTimeout = *callTimeout
	cfg.connectTimeout = *connectTimeout
	cfg.showErrors = *showErrors
	cfg.throwErrors = *throwErrors
	cfg.logMetricsEvery = *logMetricsEvery

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs basic semantic validation of the parsed configuration.
// It does not attempt to open a connection - only checks values/ranges.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.host == "" {
		return errors.New("host must not be empty")
	}
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", c.port)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.callTimeout <= 0 {
		return fmt.Errorf("call-timeout must be > 0")
	}
	if c.connectTimeout <= 0 {
		return fmt.Errorf("connect-timeout must be > 0")
	}
	return nil
}

// applyEnvOverrides maps GBXREMOTE_CLIENT_* environment variables to config
// fields unless a corresponding flag was explicitly set. Boolean & numeric
// parsing is lax: empty values ignored. Duration accepts Go time.ParseDuration format.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["host"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_HOST"); ok && v != "" {
			c.host = v
		}
	}
	if _, ok := set["port"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_PORT"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.port = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid GBXREMOTE_CLIENT_PORT: %w", err)
			}
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["call-timeout"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_CALL_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.callTimeout = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid GBXREMOTE_CLIENT_CALL_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["connect-timeout"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_CONNECT_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.connectTimeout = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid GBXREMOTE_CLIENT_CONNECT_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["show-errors"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_SHOW_ERRORS"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.showErrors = true
			case "0", "false", "no", "off":
				c.showErrors = false
			}
		}
	}
	if _, ok := set["throw-errors"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_THROW_ERRORS"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.throwErrors = true
			case "0", "false", "no", "off":
				c.throwErrors = false
			}
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("GBXREMOTE_CLIENT_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid GBXREMOTE_CLIENT_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	return firstErr
}
