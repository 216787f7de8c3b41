package uri

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"x y", "x%20y"},
		{"a&b=c", "a%26b%3Dc"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"/?#[]@", "%2F%3F%23%5B%5D%40"},
		{"$+,;:", "%24%2B%2C%3B%3A"},
		{"100%", "100%25"},
		{"héllo", "h%C3%A9llo"},
		{"日本", "%E6%97%A5%E6%9C%AC"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeComponent(tt.in))
		})
	}
}

func TestEscapeComponentRoundTrip(t *testing.T) {
	inputs := []string{"a b&c=d", "héllo wörld", "50% off + tax"}
	for _, in := range inputs {
		out, err := url.PathUnescape(EscapeComponent(in))
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	}
}
