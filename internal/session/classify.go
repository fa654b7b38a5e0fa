package session

import (
	"regexp"
	"strings"
)

// Kind is the coarse intent of an incoming message.
type Kind string

const (
	KindGreeting        Kind = "greeting"
	KindNameDeclaration Kind = "name_declaration"
	KindQuery           Kind = "query"
)

var (
	greetingWords = map[string]struct{}{
		"hi":    {},
		"hello": {},
		"hey":   {},
	}

	nameRe       = regexp.MustCompile(`(?i)\bmy name is\s+(.+)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Classify maps a message to its intent. Greeting wins over name
// declaration when both patterns match the same message.
func Classify(text string) Kind {
	if IsGreeting(text) {
		return KindGreeting
	}
	if _, ok := ExtractName(text); ok {
		return KindNameDeclaration
	}
	return KindQuery
}

// IsGreeting reports whether the message is a greeting, either as the
// whole message or as its leading token, ignoring case and punctuation.
func IsGreeting(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	token := strings.TrimFunc(fields[0], func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	_, ok := greetingWords[token]
	return ok
}

// ExtractName pulls the declared display name out of a "my name is X"
// message, trimmed and with internal whitespace collapsed.
func ExtractName(text string) (string, bool) {
	m := nameRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	name = strings.TrimRight(name, ".,!?")
	name = whitespaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}
