package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

type abortReason int32

const (
	reasonNone abortReason = iota
	reasonTimeout
	reasonCanceled
)

type modeKey struct{}

// ModeFromContext returns the request mode of an outgoing request. Custom
// transports can use it; the default one ignores it.
func ModeFromContext(ctx context.Context) (RequestMode, bool) {
	m, ok := ctx.Value(modeKey{}).(RequestMode)
	return m, ok
}

// rawResponse is a settled 2xx exchange with its body read.
type rawResponse struct {
	status     int
	statusText string
	header     http.Header
	body       []byte
}

// exchange is one in-flight transport call. Timeout and explicit cancel share
// a single abort; whichever fires first is remembered so the failure can be
// reported as what it is.
type exchange struct {
	done    chan struct{}
	resp    *rawResponse
	err     error
	reason  atomic.Int32
	settled atomic.Bool
	abort   context.CancelFunc
}

type fetchResult struct {
	resp *rawResponse
	err  error
}

// send issues cfg against target. cfg must already be the effective config.
func (c *Client) send(parent context.Context, target string, cfg RequestConfig) *exchange {
	ctx, abort := context.WithCancel(context.WithValue(parent, modeKey{}, cfg.Mode))
	ex := &exchange{done: make(chan struct{}), abort: abort}

	req, err := buildRequest(ctx, target, cfg)
	if err != nil {
		abort()
		ex.settle(nil, newTransportError(err))
		return ex
	}

	var timer *time.Timer
	if cfg.Timeout > 0 {
		timer = time.AfterFunc(cfg.Timeout, func() {
			ex.interrupt(reasonTimeout)
		})
	}

	results := make(chan fetchResult, 1)
	go func() {
		resp, err := c.fetch(req)
		results <- fetchResult{resp: resp, err: err}
	}()

	go func() {
		r := collect(ctx, results)
		if timer != nil {
			timer.Stop()
		}
		if r.err != nil && parent.Err() == context.Canceled {
			ex.reason.CompareAndSwap(int32(reasonNone), int32(reasonCanceled))
		}
		ex.settle(r.resp, ex.classify(r.err, cfg.Timeout))
		abort()
	}()

	return ex
}

// collect waits for the fetch or the abort. A result that is already waiting
// when the abort fires still wins.
func collect(ctx context.Context, results <-chan fetchResult) fetchResult {
	select {
	case r := <-results:
		return r
	case <-ctx.Done():
	}
	select {
	case r := <-results:
		return r
	default:
		return fetchResult{err: ctx.Err()}
	}
}

// interrupt aborts the exchange unless it already settled. The first reason
// recorded wins.
func (ex *exchange) interrupt(r abortReason) {
	if ex.settled.Load() {
		return
	}
	ex.reason.CompareAndSwap(int32(reasonNone), int32(r))
	ex.abort()
}

func (ex *exchange) cancel() {
	ex.interrupt(reasonCanceled)
}

func (ex *exchange) settle(resp *rawResponse, err error) {
	if !ex.settled.CompareAndSwap(false, true) {
		return
	}
	ex.resp = resp
	ex.err = err
	close(ex.done)
}

func (ex *exchange) wait() (*rawResponse, error) {
	<-ex.done
	return ex.resp, ex.err
}

func (ex *exchange) classify(err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrorTypeHTTPStatus {
		return err
	}
	switch abortReason(ex.reason.Load()) {
	case reasonTimeout:
		return newTimeoutError(timeout, err)
	case reasonCanceled:
		return newCanceledError(err)
	}
	return newTransportError(err)
}

// fetch runs the middleware chain and reads the whole body, so the abort
// covers the body transfer as well.
func (c *Client) fetch(req *http.Request) (*rawResponse, error) {
	resp, err := c.executeMiddleware(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	statusText := responseStatusText(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, newStatusError(resp.StatusCode, statusText)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &rawResponse{
		status:     resp.StatusCode,
		statusText: statusText,
		header:     resp.Header,
		body:       body,
	}, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.transport.Do(req)
	}

	current := Transport(c.transport)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = TransportFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.Do(req)
}

func responseStatusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) && len(resp.Status) > len(prefix) {
		return resp.Status[len(prefix):]
	}
	return http.StatusText(resp.StatusCode)
}

func buildRequest(ctx context.Context, target string, cfg RequestConfig) (*http.Request, error) {
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		payload, err := encodeBody(method, cfg)
		if err != nil {
			return nil, err
		}
		body = payload
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// encodeBody picks exactly one encoding: form for mapping bodies of POST/PUT
// with a form content type, raw for byte/string/stream bodies, JSON otherwise.
func encodeBody(method string, cfg RequestConfig) (io.Reader, error) {
	if (method == http.MethodPost || method == http.MethodPut) && strings.Contains(strings.ToLower(cfg.contentType()), "form") {
		if form, ok := EncodeForm(cfg.Body); ok {
			return strings.NewReader(form), nil
		}
		// Empty mappings send nothing; pre-encoded bodies go out as given.
		if _, isMapping := pairs(cfg.Body); isMapping {
			return nil, nil
		}
	}

	switch b := cfg.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	}

	data, err := json.Marshal(cfg.Body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
