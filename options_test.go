package connector

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOptionsApply(t *testing.T) {
	cache := NewInMemoryCache()
	downloader := NewDirDownloader(t.TempDir())
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	httpClient := &http.Client{Timeout: time.Second}

	client := New(
		WithHTTPClient(httpClient),
		WithCache(cache),
		WithDownloader(downloader),
		WithMetricsCollector(collector),
		WithDefaultTimeout(2*time.Second),
		WithDefaultCacheTTL(time.Minute),
		WithDefaultHeaders(map[string]string{"A": "1"}),
		WithDefaultMode(ModeNoCORS),
	)

	if !client.IsValid() {
		t.Fatalf("client invalid: %v", client.ValidationError())
	}
	if client.transport != httpClient {
		t.Error("WithHTTPClient not applied")
	}
	if client.cache != cache || client.downloader != downloader || client.metrics != collector {
		t.Error("cache, downloader or metrics not applied")
	}
	if client.defaultTimeout != 2*time.Second || client.defaultCacheTTL != time.Minute {
		t.Errorf("defaults = %v / %v", client.defaultTimeout, client.defaultCacheTTL)
	}
	if client.defaultHeaders["A"] != "1" || client.defaultMode != ModeNoCORS {
		t.Errorf("headers=%v mode=%q", client.defaultHeaders, client.defaultMode)
	}
}

func TestWithDefaultHeadersCopies(t *testing.T) {
	headers := map[string]string{"A": "1"}
	client := New(WithDefaultHeaders(headers))
	headers["A"] = "changed"

	if client.defaultHeaders["A"] != "1" {
		t.Error("client defaults alias the caller's map")
	}
}

func TestWithDebugOptions(t *testing.T) {
	client := New(WithDebug(), WithLogger(NewSimpleLogger()), WithRequestIDGenerator(func() string { return "fixed" }))

	if !client.debug.Enabled {
		t.Error("debug not enabled")
	}
	if client.debug.RequestIDGen() != "fixed" {
		t.Error("request id generator not applied")
	}
	if !client.IsValid() {
		t.Errorf("client invalid: %v", client.ValidationError())
	}

	simple := New(WithSimpleLogger())
	if simple.logger == nil || !simple.debug.Enabled {
		t.Error("WithSimpleLogger should enable debug with a logger")
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{"nil transport", []Option{WithTransport(nil)}, "transport cannot be nil"},
		{"nil http client", []Option{WithHTTPClient(nil)}, "transport cannot be nil"},
		{"nil downloader", []Option{WithDownloader(nil)}, "downloader cannot be nil"},
		{"negative timeout", []Option{WithDefaultTimeout(-time.Second)}, "defaultTimeout must be non-negative"},
		{"negative ttl", []Option{WithDefaultCacheTTL(-time.Second)}, "defaultCacheTTL must be non-negative"},
		{"ttl without cache", []Option{WithCache(nil), WithDefaultCacheTTL(time.Second)}, "cache must be set"},
		{"bad mode", []Option{WithDefaultMode("navigate")}, `unknown defaultMode "navigate"`},
		{"debug without logger", []Option{WithDebug()}, "logger must be set"},
		{"nil middleware", []Option{WithMiddleware(nil)}, "middleware[0] cannot be nil"},
		{"huge timeout", []Option{WithDefaultTimeout(time.Hour)}, "defaultTimeout > 10m"},
		{"huge ttl", []Option{WithDefaultCacheTTL(48 * time.Hour)}, "defaultCacheTTL > 24h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.opts...)
			if client.IsValid() {
				t.Fatal("expected invalid configuration")
			}
			err := client.ValidationError()
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidationError() = %v, want it to mention %q", err, tt.wantErr)
			}
			var ce *ClientError
			if !errors.As(err, &ce) || ce.Type != ErrorTypeValidation {
				t.Errorf("expected Validation ClientError, got %T", err)
			}
		})
	}
}
