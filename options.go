package connector

import (
	"fmt"
	"net/http"
	"time"
)

// WithTransport sets the transport used for every call.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient sets a custom HTTP client as the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client == nil {
			c.transport = nil
			return
		}
		c.transport = client
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithOnRequest sets the hook that observes each effective request config.
func WithOnRequest(fn RequestHook) Option {
	return func(c *Client) {
		c.onRequest = fn
	}
}

// WithOnResponse sets the hook that may replace successful responses.
func WithOnResponse(fn ResponseHook) Option {
	return func(c *Client) {
		c.onResponse = fn
	}
}

// WithOnError sets the hook that observes failures.
func WithOnError(fn ErrorHook) Option {
	return func(c *Client) {
		c.onError = fn
	}
}

// WithDefaultTimeout sets a timeout that replaces the per-call timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.defaultTimeout = d
	}
}

// WithDefaultHeaders sets headers that replace the per-call headers.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.defaultHeaders = copyHeaders(headers)
	}
}

// WithDefaultCacheTTL enables caching for every call with the given TTL,
// replacing the per-call TTL.
func WithDefaultCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.defaultCacheTTL = ttl
	}
}

// WithDefaultMode sets the mode used when a call does not set one.
func WithDefaultMode(mode RequestMode) Option {
	return func(c *Client) {
		c.defaultMode = mode
	}
}

// WithCache replaces the shared DefaultCache with cache.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDownloader sets the receiver of download payloads.
func WithDownloader(d Downloader) Option {
	return func(c *Client) {
		c.downloader = d
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger on stderr
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.optionErrors...)
	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateDefaultsConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)
	errors = append(errors, c.validateExtremeValues()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.transport == nil {
		errors = append(errors, "transport cannot be nil")
	}
	if c.downloader == nil {
		errors = append(errors, "downloader cannot be nil")
	}
	if c.now == nil {
		errors = append(errors, "clock cannot be nil")
	}

	return errors
}

func (c *Client) validateDefaultsConfig() []string {
	var errors []string

	if c.defaultTimeout < 0 {
		errors = append(errors, "defaultTimeout must be non-negative")
	}
	if c.defaultCacheTTL < 0 {
		errors = append(errors, "defaultCacheTTL must be non-negative")
	}
	if c.defaultCacheTTL > 0 && c.cache == nil {
		errors = append(errors, "cache must be set when defaultCacheTTL is enabled")
	}
	if !c.defaultMode.Valid() {
		errors = append(errors, fmt.Sprintf("unknown defaultMode %q", c.defaultMode))
	}

	return errors
}

func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}

func (c *Client) validateExtremeValues() []string {
	var errors []string

	if c.defaultTimeout > 10*time.Minute {
		errors = append(errors, "defaultTimeout > 10m may cause requests to hang for too long")
	}
	if c.defaultCacheTTL > 24*time.Hour {
		errors = append(errors, "defaultCacheTTL > 24h may cause stale data issues")
	}

	return errors
}
