// Package formenc builds application/x-www-form-urlencoded bodies with strict
// RFC 3986 percent-encoding.
//
// Unlike net/url, spaces are emitted as %20 (never '+'), only the unreserved
// set A-Z a-z 0-9 - . _ ~ passes through, and pairs keep insertion order.
package formenc

import (
	"errors"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// ErrBadEscape is returned by Decode for a truncated or non-hex escape.
var ErrBadEscape = errors.New("formenc: malformed percent escape")

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// Encode percent-encodes s. Every byte of the UTF-8 representation that is
// not unreserved becomes %XX with uppercase hex digits, so multi-byte
// characters expand to one escape per byte.
func Encode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String()
}

// Decode reverses Encode. It accepts either hex case.
func Decode(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			out = append(out, s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", ErrBadEscape
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", ErrBadEscape
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return string(out), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
