package connector

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/tidwall/sjson"
)

// Fingerprint hashes s with the 31-multiplier rolling hash over its UTF-16
// code units, wrapping at 32 bits. The empty string hashes to 0. It is a
// cache address, not a digest: collisions are possible.
func Fingerprint(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// canonicalConfig serializes the effective request with a fixed field order
// so equal requests always produce the same string.
func canonicalConfig(target string, cfg RequestConfig) string {
	out := "{}"
	out, _ = sjson.Set(out, "url", target)
	out, _ = sjson.Set(out, "method", cfg.Method)

	// encoding/json sorts map keys.
	headers, err := json.Marshal(cfg.Headers)
	if err != nil || cfg.Headers == nil {
		headers = []byte("{}")
	}
	out, _ = sjson.SetRaw(out, "headers", string(headers))

	if cfg.Body != nil {
		out, _ = sjson.SetRaw(out, "body", canonicalBody(cfg.Body))
	}
	out, _ = sjson.Set(out, "mode", string(cfg.Mode))
	if cfg.Timeout > 0 {
		out, _ = sjson.Set(out, "timeout", cfg.Timeout.Milliseconds())
	}
	if cfg.CacheTTL > 0 {
		out, _ = sjson.Set(out, "cache", cfg.CacheTTL.Milliseconds())
	}
	if cfg.Download != "" {
		out, _ = sjson.Set(out, "download", cfg.Download)
	}
	return out
}

func canonicalBody(body interface{}) string {
	switch b := body.(type) {
	case string:
		data, _ := json.Marshal(b)
		return string(data)
	case []byte:
		data, _ := json.Marshal(string(b))
		return string(data)
	case io.Reader:
		// Readers cannot be inspected without consuming them.
		return `"<stream>"`
	}
	data, err := json.Marshal(body)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("%v", body))
	}
	return string(data)
}

func fingerprintConfig(target string, cfg RequestConfig) int32 {
	return Fingerprint(canonicalConfig(target, cfg))
}
