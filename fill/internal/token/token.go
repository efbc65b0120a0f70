// Package token normalizes free text (labels, placeholders, attribute
// values) into lowercase token sequences. Unicode-aware so Turkish label
// text tokenizes the same way as English.
package token

import (
	"strings"
	"unicode"
)

// stopTokens are dropped from the output. Most of these survive only when
// the whole token is the separator itself (a bare "-" bullet, for
// example).
var stopTokens = map[string]bool{
	"*": true, ":": true, "-": true, "—": true,
	"(": true, ")": true, "[": true, "]": true,
}

// Tokenize lowercases text, treats "_ / \ |" as spaces, strips everything
// that is not a letter, digit, whitespace, "+" or "-", and splits on
// whitespace. Empty or whitespace-only input yields no tokens. Order is
// preserved.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r == '_' || r == '/' || r == '\\' || r == '|':
			b.WriteByte(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '+' || r == '-':
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if !stopTokens[f] {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Set returns the distinct tokens of text as a lookup set.
func Set(text string) map[string]bool {
	toks := Tokenize(text)
	if len(toks) == 0 {
		return nil
	}
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}
