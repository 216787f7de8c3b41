package connector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client layers default headers, timeouts, cancellation, response hooks and
// a TTL response cache over a Transport. It is safe for concurrent use and
// its options cannot change after New.
type Client struct {
	transport  Transport
	middleware []Middleware

	onRequest  RequestHook
	onResponse ResponseHook
	onError    ErrorHook

	defaultTimeout  time.Duration
	defaultHeaders  map[string]string
	defaultCacheTTL time.Duration
	defaultMode     RequestMode

	cache      Cache
	downloader Downloader
	metrics    *MetricsCollector
	debug      *DebugConfig
	logger     Logger
	now        func() time.Time

	optionErrors    []string
	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors. Every
// request on an invalid client fails with the validation error.
func New(options ...Option) *Client {
	client := &Client{
		transport:   &http.Client{},
		middleware:  []Middleware{},
		defaultMode: ModeCORS,
		cache:       DefaultCache,
		downloader:  NewDirDownloader("."),
		metrics:     nil,
		debug:       DefaultDebugConfig(),
		logger:      nil,
		now:         time.Now,
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Pending is an in-flight request. It settles exactly once.
type Pending struct {
	done   chan struct{}
	resp   *Response
	err    error
	cancel func()
}

func newPending(cancel func()) *Pending {
	return &Pending{done: make(chan struct{}), cancel: cancel}
}

func settledPending(resp *Response, err error) *Pending {
	p := newPending(nil)
	p.settle(resp, err)
	return p
}

func (p *Pending) settle(resp *Response, err error) {
	p.resp = resp
	p.err = err
	close(p.done)
}

// Wait blocks until the request settles.
func (p *Pending) Wait() (*Response, error) {
	<-p.done
	return p.resp, p.err
}

// Done is closed once the request settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Cancel aborts the request. The pending result becomes a cancellation
// error unless the request already settled, in which case Cancel does
// nothing.
func (p *Pending) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Request performs a call and waits for the result.
func (c *Client) Request(ctx context.Context, rawURL string, cfg *RequestConfig) (*Response, error) {
	return c.Start(ctx, rawURL, cfg).Wait()
}

// Start begins a call and returns immediately. Cache hits return an already
// settled Pending, as do calls on a client that failed validation.
func (c *Client) Start(ctx context.Context, rawURL string, cfg *RequestConfig) *Pending {
	if c.validationError != nil {
		if c.onError != nil {
			c.onError(c.validationError)
		}
		return settledPending(nil, c.validationError)
	}

	start := c.now()
	effective := c.effectiveConfig(cfg)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	if c.onRequest != nil {
		c.onRequest(effective.clone())
	}

	target := appendQuery(rawURL, EncodeQuery(effective.Query))
	method := effective.Method
	endpoint := endpointFromURL(target)

	if c.debugOn(c.debug != nil && c.debug.LogRequests) {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", target, "endpoint", endpoint)
	}

	cacheEnabled := effective.CacheTTL > 0 && c.cache != nil
	var fp int32
	if cacheEnabled {
		fp = fingerprintConfig(target, effective)
		if cached, found := c.cache.Lookup(fp, effective.CacheTTL); found {
			if c.debugOn(c.debug != nil && c.debug.LogCache) {
				c.logger.Debug("Cache hit", "requestID", requestID, "fingerprint", fp)
			}
			c.metrics.RecordCacheHit(method, endpoint)
			c.metrics.RecordRequest(method, endpoint, cached.Status, c.now().Sub(start))
			return settledPending(c.applyResponseHook(cached), nil)
		}
		c.metrics.RecordCacheMiss(method, endpoint)
		if c.debugOn(c.debug != nil && c.debug.LogCache) {
			c.logger.Debug("Cache miss", "requestID", requestID, "fingerprint", fp)
		}
	}

	c.metrics.RecordRequestStart(method, endpoint)
	ex := c.send(ctx, target, effective)
	p := newPending(ex.cancel)

	go func() {
		raw, err := ex.wait()
		c.metrics.RecordRequestEnd(method, endpoint)

		if err != nil {
			p.settle(nil, c.fail(err, requestID, method, target, endpoint, start))
			return
		}

		c.metrics.RecordRequest(method, endpoint, raw.status, c.now().Sub(start))

		if effective.Download != "" {
			c.downloader.Download(raw.body, effective.Download)
			c.metrics.RecordDownload(endpoint)
			if c.debugOn(c.debug != nil && c.debug.LogDownloads) {
				c.logger.Debug("Response downloaded", "requestID", requestID, "filename", effective.Download, "bytes", len(raw.body))
			}
			p.settle(c.applyResponseHook(&Response{Download: true}), nil)
			return
		}

		resp := &Response{
			OK:         true,
			Status:     raw.status,
			StatusText: raw.statusText,
			Body:       decodeBody(raw.body),
			Raw:        raw.body,
		}

		if cacheEnabled {
			c.cache.Store(fp, resp)
			c.metrics.RecordCacheSize("default", c.cache.Len())
			if c.debugOn(c.debug != nil && c.debug.LogCache) {
				c.logger.Debug("Response cached", "requestID", requestID, "fingerprint", fp, "ttl", effective.CacheTTL)
			}
		}

		p.settle(c.applyResponseHook(resp), nil)
	}()

	return p
}

// effectiveConfig merges cfg with the client defaults. Client defaults for
// headers, timeout and cache TTL replace the per-call values when set.
func (c *Client) effectiveConfig(cfg *RequestConfig) RequestConfig {
	eff := cfg.clone()

	if len(c.defaultHeaders) > 0 {
		eff.Headers = copyHeaders(c.defaultHeaders)
	}
	if eff.Headers == nil {
		eff.Headers = map[string]string{}
	}
	if c.defaultTimeout > 0 {
		eff.Timeout = c.defaultTimeout
	}
	if eff.Timeout < 0 {
		eff.Timeout = 0
	}
	if c.defaultCacheTTL > 0 {
		eff.CacheTTL = c.defaultCacheTTL
	}
	if eff.CacheTTL < 0 {
		eff.CacheTTL = 0
	}

	eff.Method = strings.ToUpper(eff.Method)
	if eff.Method == "" {
		eff.Method = http.MethodGet
	}
	if eff.Mode == "" {
		eff.Mode = c.defaultMode
	}
	return eff
}

func (c *Client) applyResponseHook(resp *Response) *Response {
	if c.onResponse == nil {
		return resp
	}
	if r := c.onResponse(resp); r != nil {
		return r
	}
	return resp
}

// fail annotates err, runs the error hook and returns err for the caller.
func (c *Client) fail(err error, requestID, method, target, endpoint string, start time.Time) error {
	duration := c.now().Sub(start)
	errorType := ErrorTypeTransport

	var ce *ClientError
	if errors.As(err, &ce) {
		ce.RequestID = requestID
		ce.Method = method
		ce.URL = target
		ce.Timestamp = c.now()
		ce.Duration = duration
		errorType = ce.Type
	}

	c.metrics.RecordError(errorType, method, endpoint)
	c.metrics.RecordRequest(method, endpoint, StatusCode(err), duration)

	if c.debugOn(c.debug != nil && c.debug.LogErrors) {
		c.logger.Warn("Request failed", "requestID", requestID, "type", errorType, "code", ErrorCode(err), "error", err.Error())
	}

	if c.onError != nil {
		c.onError(err)
	}
	return err
}

func (c *Client) debugOn(category bool) bool {
	return category && c.debug.Enabled && c.logger != nil
}

// decodeBody returns the JSON value of raw, or raw as text when it is not
// JSON. It never fails.
func decodeBody(raw []byte) interface{} {
	if len(raw) == 0 {
		return ""
	}
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}
	return gjson.ParseBytes(raw).Value()
}

func endpointFromURL(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)

	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}

func withMethod(cfg *RequestConfig, method string) *RequestConfig {
	out := cfg.clone()
	out.Method = method
	return &out
}

func withBody(cfg *RequestConfig, method string, data interface{}) *RequestConfig {
	out := withMethod(cfg, method)
	out.Body = data
	return out
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withMethod(cfg, http.MethodGet))
}

// Post performs a POST request with data as the body.
func (c *Client) Post(ctx context.Context, url string, data interface{}, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withBody(cfg, http.MethodPost, data))
}

// Put performs a PUT request with data as the body.
func (c *Client) Put(ctx context.Context, url string, data interface{}, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withBody(cfg, http.MethodPut, data))
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withMethod(cfg, http.MethodDelete))
}

// Options performs an OPTIONS request.
func (c *Client) Options(ctx context.Context, url string, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withMethod(cfg, http.MethodOptions))
}

// Patch performs a PATCH request. The body, if any, comes from cfg.
func (c *Client) Patch(ctx context.Context, url string, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withMethod(cfg, http.MethodPatch))
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, url string, cfg *RequestConfig) (*Response, error) {
	return c.Request(ctx, url, withMethod(cfg, http.MethodHead))
}

// GetJSON performs a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}, cfg *RequestConfig) error {
	resp, err := c.Get(ctx, url, cfg)
	if err != nil {
		return err
	}
	return resp.Unmarshal(out)
}

// PostJSON performs a POST request with data and decodes the body into out.
func (c *Client) PostJSON(ctx context.Context, url string, data, out interface{}, cfg *RequestConfig) error {
	resp, err := c.Post(ctx, url, data, cfg)
	if err != nil {
		return err
	}
	return resp.Unmarshal(out)
}
