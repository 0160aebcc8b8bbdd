package lobby

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeNickname turns the raw handshake reply into a nickname that fits in
// a single protocol token. Whitespace and colons become underscores, control
// characters are dropped and the result is cut to maxLen runes. A reply with
// nothing usable left in it yields fallback.
func NormalizeNickname(raw, fallback string, maxLen int) string {
	name := norm.NFC.String(strings.TrimSpace(raw))

	var b strings.Builder
	n := 0
	for _, r := range name {
		if maxLen > 0 && n >= maxLen {
			break
		}
		switch {
		case unicode.IsSpace(r), r == ':':
			r = '_'
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		}
		b.WriteRune(r)
		n++
	}

	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
