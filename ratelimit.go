package connector

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// KeyFunc groups outgoing requests that share a rate limit.
type KeyFunc func(req *http.Request) string

// HostKey limits each upstream host separately.
func HostKey(req *http.Request) string {
	if req.URL.Host != "" {
		return "host:" + req.URL.Host
	}
	if req.Host != "" {
		return "host:" + req.Host
	}
	return "host:unknown"
}

// Throttle hands out one token bucket per key. Waiting for a token honors the
// request context, so a timeout or cancel interrupts the wait like any other
// part of the exchange.
type Throttle struct {
	limit   rate.Limit
	burst   int
	keyFunc KeyFunc

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewThrottle allows limit requests per second with bursts of burst for each
// key. A nil keyFunc shares one bucket between all requests.
func NewThrottle(limit rate.Limit, burst int, keyFunc KeyFunc) *Throttle {
	return &Throttle{
		limit:    limit,
		burst:    burst,
		keyFunc:  keyFunc,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *Throttle) limiter(req *http.Request) *rate.Limiter {
	key := "default"
	if t.keyFunc != nil {
		key = t.keyFunc(req)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = l
	}
	return l
}

// Middleware blocks each request until its bucket has a token.
func (t *Throttle) Middleware() Middleware {
	return func(req *http.Request, next Transport) (*http.Response, error) {
		if err := t.limiter(req).Wait(req.Context()); err != nil {
			return nil, err
		}
		return next.Do(req)
	}
}

// WithRateLimit throttles outgoing requests per upstream host. Cache hits do
// not consume tokens.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 || burst <= 0 {
			c.optionErrors = append(c.optionErrors, "rate limit and burst must be positive")
			return
		}
		c.middleware = append(c.middleware, NewThrottle(limit, burst, HostKey).Middleware())
	}
}
