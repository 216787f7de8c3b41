package connector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ambiyansyah-risyal/connector/internal/uri"
)

// Values is a string mapping that remembers insertion order. Form bodies and
// query mappings built from Values are encoded in that order.
type Values struct {
	keys []string
	m    map[string]string
}

// NewValues builds Values from alternating key/value arguments. A trailing
// key without a value gets the empty string.
func NewValues(kv ...string) *Values {
	v := &Values{m: make(map[string]string, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		val := ""
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		v.Set(kv[i], val)
	}
	return v
}

// Set assigns value to key. An existing key keeps its position.
func (v *Values) Set(key, value string) *Values {
	if v.m == nil {
		v.m = make(map[string]string)
	}
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = value
	return v
}

// Get returns the value stored under key.
func (v *Values) Get(key string) (string, bool) {
	if v == nil {
		return "", false
	}
	val, ok := v.m[key]
	return val, ok
}

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Len returns the number of keys.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// MarshalJSON writes the object with keys in insertion order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type pair struct {
	key   string
	value string
}

// pairs flattens the supported mapping types. Go maps have no insertion
// order, so they are enumerated by sorted key. ok is false for anything
// that is not a mapping.
func pairs(data interface{}) (out []pair, ok bool) {
	switch d := data.(type) {
	case *Values:
		if d == nil {
			return nil, true
		}
		for _, k := range d.keys {
			out = append(out, pair{k, d.m[k]})
		}
	case Values:
		return pairs(&d)
	case map[string]string:
		for _, k := range sortedKeys(d) {
			out = append(out, pair{k, d[k]})
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, pair{k, fmt.Sprint(d[k])})
		}
	case url.Values:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, val := range d[k] {
				out = append(out, pair{k, val})
			}
		}
	default:
		return nil, false
	}
	return out, true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EncodeForm renders data as an application/x-www-form-urlencoded string.
// Values are escaped the way browsers escape URI components (a space becomes
// %20); keys are written as given. ok is false for nil, empty or non-mapping
// input.
func EncodeForm(data interface{}) (string, bool) {
	if data == nil {
		return "", false
	}
	ps, ok := pairs(data)
	if !ok || len(ps) == 0 {
		return "", false
	}

	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(uri.EscapeComponent(p.value))
	}
	return b.String(), true
}

// EncodeQuery resolves a query value. Strings pass through untouched;
// mappings become key=value pairs joined by '&' with no escaping.
func EncodeQuery(q interface{}) string {
	switch v := q.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	ps, ok := pairs(q)
	if !ok {
		return fmt.Sprint(q)
	}
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, p.key+"="+p.value)
	}
	return strings.Join(parts, "&")
}

// appendQuery joins query onto rawURL with '?' or '&'.
func appendQuery(rawURL, query string) string {
	if query == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}
