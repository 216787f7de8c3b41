package connector

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// RequestMode mirrors the fetch request mode. It does not change how the
// default transport behaves; it is part of the request fingerprint and is
// exposed to transports through ModeFromContext.
type RequestMode string

const (
	ModeCORS       RequestMode = "cors"
	ModeNoCORS     RequestMode = "no-cors"
	ModeSameOrigin RequestMode = "same-origin"
)

// Valid reports whether m is one of the known modes.
func (m RequestMode) Valid() bool {
	switch m {
	case ModeCORS, ModeNoCORS, ModeSameOrigin:
		return true
	}
	return false
}

// RequestConfig describes a single call. Zero durations mean "unset".
//
// Body may be a *Values, map[string]string, map[string]interface{} or
// url.Values when the request is form encoded; []byte, string and io.Reader
// bodies are sent as-is; anything else is serialized to JSON.
//
// Query may be a string (appended verbatim) or one of the mapping types above
// (encoded as key=value pairs without escaping).
type RequestConfig struct {
	Method   string
	Headers  map[string]string
	Body     interface{}
	Mode     RequestMode
	Timeout  time.Duration
	CacheTTL time.Duration
	Query    interface{}
	Download string
}

func (rc *RequestConfig) clone() RequestConfig {
	if rc == nil {
		return RequestConfig{}
	}
	out := *rc
	out.Headers = copyHeaders(rc.Headers)
	return out
}

// contentType returns the content-type header value, matching the key
// case-insensitively.
func (rc RequestConfig) contentType() string {
	for k, v := range rc.Headers {
		if strings.EqualFold(k, "Content-Type") {
			return v
		}
	}
	return ""
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Response is the normalized envelope handed to callers and hooks.
type Response struct {
	OK         bool        `json:"ok"`
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Body       interface{} `json:"body"`
	Download   bool        `json:"download,omitempty"`

	// Raw holds the undecoded payload. It is empty for download markers.
	Raw []byte `json:"-"`
}

// Unmarshal decodes the response payload into v.
func (r *Response) Unmarshal(v interface{}) error {
	if len(r.Raw) > 0 {
		return json.Unmarshal(r.Raw, v)
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// clone returns a copy that shares nothing mutable with r. Body is rebuilt
// from Raw so hooks cannot reach cached state through it.
func (r *Response) clone() *Response {
	out := *r
	if r.Raw != nil {
		out.Raw = append([]byte(nil), r.Raw...)
		out.Body = decodeBody(out.Raw)
	}
	return &out
}

// RequestHook observes the effective configuration before a call. Its
// argument is a copy; changes are not applied to the request.
type RequestHook func(cfg RequestConfig)

// ResponseHook may replace a successful response. Returning nil keeps the
// original.
type ResponseHook func(resp *Response) *Response

// ErrorHook observes failures before they are returned to the caller.
type ErrorHook func(err error)

// Transport performs one HTTP exchange. *http.Client satisfies it.
type Transport interface {
	Do(*http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(*http.Request) (*http.Response, error)

// Do calls f(req).
func (f TransportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps the transport for cross-cutting concerns.
type Middleware func(req *http.Request, next Transport) (*http.Response, error)

// Option configures a Client.
type Option func(*Client)
