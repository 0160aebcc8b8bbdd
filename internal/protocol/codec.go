package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is a single decoded protocol message.
type Line struct {
	// Name is the command, e.g. FIRE_RESOLVE.
	Name string
	// Tokens holds everything after the command name, split on whitespace.
	Tokens []string

	raw string
}

// Decode splits a raw line into its command name and tokens. Decoding never
// fails; a blank line decodes to a Line with an empty Name.
func Decode(s string) Line {
	s = strings.TrimSpace(strings.TrimRight(s, "\r\n"))
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Line{}
	}
	return Line{Name: fields[0], Tokens: fields[1:], raw: s}
}

// Empty reports whether the line carried no command.
func (l Line) Empty() bool { return l.Name == "" }

// String returns the line as it was received, minus surrounding whitespace.
func (l Line) String() string { return l.raw }

// Rest returns the text following the command name with its inner spacing
// preserved, which is what free-form commands like CHAT carry.
func (l Line) Rest() string {
	idx := strings.IndexAny(l.raw, " \t")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(l.raw[idx+1:])
}

// Arg returns the i-th token.
func (l Line) Arg(i int) (string, bool) {
	if i < 0 || i >= len(l.Tokens) {
		return "", false
	}
	return l.Tokens[i], true
}

// Value looks up the first KEY=VALUE token with the given key.
func (l Line) Value(key string) (string, bool) {
	prefix := key + "="
	for _, tok := range l.Tokens {
		if strings.HasPrefix(tok, prefix) {
			return tok[len(prefix):], true
		}
	}
	return "", false
}

// Int returns the integer value for key, or fallback if the key is missing or
// does not hold a number.
func (l Line) Int(key string, fallback int) int {
	v, ok := l.Value(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Position parses a chamber position written as <index>/6. If key is empty the
// first bare token holding a position is used, otherwise the value for key.
// Anything unparsable yields fallback.
func (l Line) Position(key string, fallback int) int {
	var tok string
	if key != "" {
		v, ok := l.Value(key)
		if !ok {
			return fallback
		}
		tok = v
	} else {
		for _, t := range l.Tokens {
			if !strings.Contains(t, "=") && strings.Contains(t, "/") {
				tok = t
				break
			}
		}
	}
	idx, _, found := strings.Cut(tok, "/")
	if !found {
		return fallback
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 || n > Chambers {
		return fallback
	}
	return n
}

// Encode joins a command name and its tokens into a single line without the
// trailing newline.
func Encode(name string, tokens ...string) string {
	if len(tokens) == 0 {
		return name
	}
	return name + " " + strings.Join(tokens, " ")
}

// KV renders a KEY=VALUE token.
func KV(key string, value interface{}) string {
	return fmt.Sprintf("%s=%v", key, value)
}

// FormatPosition renders a chamber position as <index>/6.
func FormatPosition(index int) string {
	return strconv.Itoa(index) + "/" + strconv.Itoa(Chambers)
}
