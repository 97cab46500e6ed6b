package service

import (
	"strings"
	"unicode"
)

// signalKeywords are lowercase stems matched against the start of each word.
var signalKeywords = []string{
	"stress",
	"anxi",
	"panic",
	"worr",
	"overwhelm",
	"depress",
	"hopeless",
	"sad",
	"sleep",
	"insomnia",
	"tired",
	"exhaust",
	"burnout",
	"anger",
	"angry",
	"lonel",
	"alone",
	"grief",
}

// KeywordMatches counts the distinct signal keywords present in text.
func KeywordMatches(text string) int {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	matched := make(map[string]struct{})
	for _, w := range words {
		for _, kw := range signalKeywords {
			if strings.HasPrefix(w, kw) {
				matched[kw] = struct{}{}
			}
		}
	}
	return len(matched)
}

// PreferGenerative is true for multi-signal and for open-ended messages.
// A message with exactly one signal keyword is the only case it excludes.
func PreferGenerative(matches int) bool {
	return matches >= 2 || matches == 0
}
