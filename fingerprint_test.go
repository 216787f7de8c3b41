package connector

import (
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestFingerprintKnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"hello", 99162322},
		{`{"method":"GET"}`, 1802788975},
	}

	for _, tt := range tests {
		if got := Fingerprint(tt.in); got != tt.want {
			t.Errorf("Fingerprint(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFingerprintWrapsAt32Bits(t *testing.T) {
	long := strings.Repeat("connector", 200)
	first := Fingerprint(long)
	if first != Fingerprint(long) {
		t.Fatal("Fingerprint is not deterministic")
	}

	// Walk the same computation in int64 and truncate at every step.
	var h int64
	for _, c := range long {
		h = int64(int32(h*31 + int64(c)))
	}
	if int32(h) != first {
		t.Errorf("Fingerprint(long) = %d, want %d", first, int32(h))
	}
}

func TestFingerprintUsesUTF16CodeUnits(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00.
	want := int32(0xD83D)*31 + int32(0xDE00)
	if got := Fingerprint("\U0001F600"); got != want {
		t.Errorf("Fingerprint(emoji) = %d, want %d", got, want)
	}
}

func TestCanonicalConfigFieldOrder(t *testing.T) {
	cfg := RequestConfig{
		Method:   "POST",
		Headers:  map[string]string{"b": "2", "a": "1"},
		Body:     NewValues("z", "1", "y", "2"),
		Mode:     ModeCORS,
		Timeout:  250 * time.Millisecond,
		CacheTTL: time.Second,
		Download: "out.bin",
	}

	got := canonicalConfig("http://example.com/x", cfg)
	want := `{"url":"http://example.com/x","method":"POST","headers":{"a":"1","b":"2"},"body":{"z":"1","y":"2"},"mode":"cors","timeout":250,"cache":1000,"download":"out.bin"}`
	if got != want {
		t.Errorf("canonicalConfig() =\n%s\nwant\n%s", got, want)
	}
	if !gjson.Valid(got) {
		t.Error("canonicalConfig() produced invalid JSON")
	}
}

func TestCanonicalConfigOmitsUnsetFields(t *testing.T) {
	got := canonicalConfig("http://example.com", RequestConfig{Method: "GET", Mode: ModeCORS})
	want := `{"url":"http://example.com","method":"GET","headers":{},"mode":"cors"}`
	if got != want {
		t.Errorf("canonicalConfig() = %s, want %s", got, want)
	}
}

func TestFingerprintConfigDistinguishesRequests(t *testing.T) {
	base := RequestConfig{Method: "GET", Mode: ModeCORS, CacheTTL: time.Second}

	a := fingerprintConfig("http://example.com/a", base)
	b := fingerprintConfig("http://example.com/b", base)
	if a == b {
		t.Error("different URLs produced the same fingerprint")
	}

	withHeader := base
	withHeader.Headers = map[string]string{"Accept": "text/plain"}
	if fingerprintConfig("http://example.com/a", withHeader) == a {
		t.Error("headers did not change the fingerprint")
	}

	// Map iteration order must not leak into the fingerprint.
	h1 := base
	h1.Headers = map[string]string{"x": "1", "y": "2", "z": "3"}
	h2 := base
	h2.Headers = map[string]string{"z": "3", "y": "2", "x": "1"}
	if fingerprintConfig("u", h1) != fingerprintConfig("u", h2) {
		t.Error("equal header maps produced different fingerprints")
	}

	b1 := base
	b1.Body = *NewValues("a", "1")
	b2 := base
	b2.Body = *NewValues("a", "2")
	if fingerprintConfig("u", b1) == fingerprintConfig("u", b2) {
		t.Error("different Values bodies produced the same fingerprint")
	}
}

func TestCanonicalBody(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"string", "a b", `"a b"`},
		{"bytes", []byte("raw"), `"raw"`},
		{"reader", strings.NewReader("x"), `"<stream>"`},
		{"map", map[string]int{"b": 2, "a": 1}, `{"a":1,"b":2}`},
		{"values", NewValues("b", "2", "a", "1"), `{"b":"2","a":"1"}`},
		{"values by value", *NewValues("b", "2", "a", "1"), `{"b":"2","a":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonicalBody(tt.body); got != tt.want {
				t.Errorf("canonicalBody() = %s, want %s", got, tt.want)
			}
		})
	}
}
