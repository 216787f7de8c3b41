// Package uri implements the URI component escaping used by browsers'
// encodeURIComponent, which net/url does not offer: url.QueryEscape turns
// spaces into '+' and url.PathEscape leaves '&' and '=' alone.
package uri

const upperhex = "0123456789ABCDEF"

// unreserved reports whether c is left as-is by component escaping.
func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EscapeComponent percent-encodes every byte of s outside the unreserved set.
// Multi-byte UTF-8 sequences are escaped byte by byte.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}
