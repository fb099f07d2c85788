package extension

import (
	"strings"
	"unicode"
)

// IsCommand reports whether a chat line is a candidate command: after
// trimming it is at least two characters long and begins with the prefix
// character.
func IsCommand(s string, prefix byte) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == prefix
}

// ParseCommand extracts the command token and argument string from a chat
// line. The token is the first non-empty whitespace-delimited word after the
// prefix; the remainder, trimmed, is the argument string. ok is false when
// the line is not a command.
func ParseCommand(s string, prefix byte) (command, arguments string, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != prefix {
		return "", "", false
	}

	rest := strings.TrimSpace(s[1:])
	if rest == "" {
		return "", "", false
	}

	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		return rest[:idx], strings.TrimSpace(rest[idx:]), true
	}
	return rest, "", true
}
