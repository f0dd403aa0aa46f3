package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	tokenPrefixes = "\"'`‘“([{¿¡$£€#"
	tokenSuffixes = "\"'`’”)]}.,;:!?%"
)

var possessiveClitics = []string{"'s", "’s"}

// Tokenize splits text into search tokens. Hyphens inside a word never split
// it, so "covid-19" and "spider-man" stay single tokens, while arithmetic
// operators between digits still do ("3+4" -> "3", "+", "4").
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = appendFieldTokens(tokens, field)
	}
	return tokens
}

func appendFieldTokens(tokens []string, field string) []string {
	var prefixes []string
	for field != "" {
		r, size := utf8.DecodeRuneInString(field)
		if !strings.ContainsRune(tokenPrefixes, r) {
			break
		}
		prefixes = append(prefixes, field[:size])
		field = field[size:]
	}

	var suffixes []string
	for field != "" {
		if n := possessiveLen(field); n > 0 {
			suffixes = append(suffixes, field[len(field)-n:])
			field = field[:len(field)-n]
			continue
		}
		r, size := utf8.DecodeLastRuneInString(field)
		if !strings.ContainsRune(tokenSuffixes, r) {
			break
		}
		if r == '.' && strings.Count(field, ".") > 1 {
			// Abbreviations such as "u.s." keep their final period.
			break
		}
		suffixes = append(suffixes, field[len(field)-size:])
		field = field[:len(field)-size]
	}

	tokens = append(tokens, prefixes...)
	tokens = append(tokens, splitInfixes(field)...)
	for i := len(suffixes) - 1; i >= 0; i-- {
		tokens = append(tokens, suffixes[i])
	}
	return tokens
}

func splitInfixes(word string) []string {
	if word == "" {
		return nil
	}
	runes := []rune(word)
	var out []string
	start := 0
	for i := 1; i < len(runes)-1; i++ {
		if !isInfixSplit(runes[i-1], runes[i], runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i]), string(runes[i]))
		start = i + 1
	}
	return append(out, string(runes[start:]))
}

func isInfixSplit(prev, cur, next rune) bool {
	switch cur {
	case '+', '*', '^':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	case ':', '<', '>', '=', '/':
		return (unicode.IsLetter(prev) || unicode.IsDigit(prev)) && unicode.IsLetter(next)
	case ',':
		return unicode.IsLetter(prev) && unicode.IsLetter(next)
	default:
		return false
	}
}

// possessiveLen returns the byte length of a trailing possessive clitic, or 0.
func possessiveLen(field string) int {
	lower := strings.ToLower(field)
	for _, clitic := range possessiveClitics {
		if len(field) > len(clitic) && strings.HasSuffix(lower, clitic) {
			return len(clitic)
		}
	}
	return 0
}

func isPossessive(token string) bool {
	lower := strings.ToLower(token)
	for _, clitic := range possessiveClitics {
		if lower == clitic {
			return true
		}
	}
	return false
}

// normalizeWord lower-cases a word and removes punctuation the same way the
// query reformulator does, so sentence words, question words and weight keys
// compare equal ("O'Neil" and "o’neil" both become "oneil").
func normalizeWord(word string) string {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})
	return strings.ToLower(stripPunctuation(trimmed))
}
