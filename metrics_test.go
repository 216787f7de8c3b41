package connector

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	if collector == nil {
		t.Fatal("NewMetricsCollectorWithRegistry() returned nil")
	}
	if collector.requestsTotal == nil {
		t.Error("requestsTotal metric not initialized")
	}
	if collector.requestDuration == nil {
		t.Error("requestDuration metric not initialized")
	}
	if collector.requestsInFlight == nil {
		t.Error("requestsInFlight metric not initialized")
	}
	if collector.cacheHits == nil || collector.cacheMisses == nil || collector.cacheSize == nil {
		t.Error("cache metrics not initialized")
	}
	if collector.downloadsTotal == nil {
		t.Error("downloadsTotal metric not initialized")
	}
	if collector.errorsTotal == nil {
		t.Error("errorsTotal metric not initialized")
	}
	if collector.GetRegistry() != registry {
		t.Error("GetRegistry() returned a different registerer")
	}
}

func TestNilMetricsCollectorIsSafe(t *testing.T) {
	var mc *MetricsCollector
	mc.RecordRequest("GET", "/", 200, time.Millisecond)
	mc.RecordRequestStart("GET", "/")
	mc.RecordRequestEnd("GET", "/")
	mc.RecordCacheHit("GET", "/")
	mc.RecordCacheMiss("GET", "/")
	mc.RecordCacheSize("default", 1)
	mc.RecordDownload("/")
	mc.RecordError(ErrorTypeTimeout, "GET", "/")
}

func TestMetricsRecordedByClient(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client := newTestClient(&countingTransport{body: `"x"`}, WithMetricsCollector(collector))
	cfg := &RequestConfig{CacheTTL: time.Minute}
	const endpoint = "example.com/items"

	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), testURL, cfg); err != nil {
			t.Fatalf("Get() error: %v", err)
		}
	}

	if got := testutil.ToFloat64(collector.cacheMisses.WithLabelValues("GET", endpoint)); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.cacheHits.WithLabelValues("GET", endpoint)); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", endpoint)); got != 3 {
		t.Errorf("requests total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", endpoint)); got != 0 {
		t.Errorf("in-flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.cacheSize.WithLabelValues("default")); got != 1 {
		t.Errorf("cache size = %v, want 1", got)
	}
}

func TestMetricsRecordErrorsAndDownloads(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	status := &countingTransport{status: http.StatusBadGateway}
	client := newTestClient(status, WithMetricsCollector(collector),
		WithDownloader(DownloaderFunc(func([]byte, string) {})))
	const endpoint = "example.com/items"

	_, _ = client.Get(context.Background(), testURL, nil)
	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeHTTPStatus, "GET", endpoint)); got != 1 {
		t.Errorf("status errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "502", endpoint)); got != 1 {
		t.Errorf("502 requests = %v, want 1", got)
	}

	status.status = http.StatusOK
	if _, err := client.Get(context.Background(), testURL, &RequestConfig{Download: "a.bin"}); err != nil {
		t.Fatalf("download Get() error: %v", err)
	}
	if got := testutil.ToFloat64(collector.downloadsTotal.WithLabelValues(endpoint)); got != 1 {
		t.Errorf("downloads = %v, want 1", got)
	}
}

func TestEndpointFromURL(t *testing.T) {
	tests := map[string]string{
		"http://example.com":             "example.com/",
		"http://example.com/":            "example.com/",
		"https://api.example.com/v1/x?q": "api.example.com/v1/x",
		"://bad":                         "unknown",
	}
	for in, want := range tests {
		if got := endpointFromURL(in); got != want {
			t.Errorf("endpointFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
