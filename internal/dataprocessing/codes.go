package dataprocessing

import (
	"strings"

	"evelis/pkg/contracts/domain"
)

// CleanCode canonicalizes an identifier for cross-source joining: it
// keeps only ASCII letters and digits, then strips leading zeros, so
// "000123-A", "0123 A" and 123 all join as "123A". Nil yields "".
// The result is used purely as a lookup key, never displayed.
//
// CleanCode is idempotent: CleanCode(CleanCode(x)) == CleanCode(x).
func CleanCode(v any) string {
	s := domain.Stringify(v)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}
