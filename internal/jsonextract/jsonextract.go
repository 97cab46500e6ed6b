// Package jsonextract recovers a JSON object embedded in free-form model output.
package jsonextract

import (
	"errors"
	"strings"
)

var (
	ErrNoObject   = errors.New("no JSON object found in text")
	ErrUnbalanced = errors.New("JSON object is not closed")
)

// FirstObject returns the first balanced {...} span in text, starting at the
// first '{'. Braces inside string literals are ignored. The span is not
// validated as JSON; callers still unmarshal it.
func FirstObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrUnbalanced
}
