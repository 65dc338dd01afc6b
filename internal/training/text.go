package training

import (
	"strings"
	"unicode"
)

// normalize lowercases s and collapses every run of non letter/digit/hyphen
// characters into a single space, padding both ends so phrase lookups can
// match whole words with " kw ".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// MatchKeywords returns the keywords that appear in text as whole words or
// whole phrases, in keyword order.
func MatchKeywords(text string, keywords []string) []string {
	if text == "" {
		return nil
	}
	norm := normalize(text)
	var out []string
	for _, kw := range keywords {
		if strings.Contains(norm, normalize(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

func HasKeyword(text string, keywords []string) bool {
	return len(MatchKeywords(text, keywords)) > 0
}
