package repositorycache

import (
	"strings"
	"unicode"
)

// toSnake turns a Go type name into a snake_case namespace. Anything that is
// not a letter or digit becomes a word break, so reflected names such as
// "Page[main.Film]" still yield a key-safe prefix.
func toSnake(s string) string {
	runes := []rune(s)
	words := make([]string, 0, 4)
	var word []rune

	flush := func() {
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(word) > 0 && startsWord(runes, i) {
			flush()
		}
		word = append(word, r)
	}
	flush()

	return strings.Join(words, "_")
}

// startsWord reports whether runes[i] begins a new word given the rune before it.
func startsWord(runes []rune, i int) bool {
	prev, cur := runes[i-1], runes[i]
	switch {
	case unicode.IsUpper(cur):
		if unicode.IsLower(prev) || unicode.IsDigit(prev) {
			return true
		}
		// Last capital of an acronym followed by lowercase: "HTTPServer" -> "http", "server".
		return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
	case unicode.IsDigit(cur):
		return !unicode.IsDigit(prev)
	}
	return false
}
