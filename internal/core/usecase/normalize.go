package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var contractionPattern = regexp.MustCompile(`(?i)\b(i|you|we|he|she|they|it|` +
	`somebody|someone|something|` +
	`who|what|when|where|why|how|which|` +
	`this|these|that|those|there|here|` +
	`ain|isn|aren|wasn|weren|won|` +
	`can|couldn|shouldn|wouldn|mightn|mustn|` +
	`don|doesn|didn|haven|hasn|hadn|` +
	`let)\s*'?\s*\b(ll|d|ve|m|s|re|t)\b`)

// NormalizeAnswer collapses whitespace, rejoins split contractions and
// capitalizes the first letter.
func NormalizeAnswer(answer string) string {
	text := strings.Join(strings.Fields(answer), " ")
	text = contractionPattern.ReplaceAllString(text, "${1}'${2}")
	return capitalizeFirst(text)
}

func capitalizeFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || unicode.IsUpper(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// capitalizeQuery upper-cases the first character of an incoming query.
func capitalizeQuery(query string) string {
	return capitalizeFirst(strings.TrimSpace(query))
}
