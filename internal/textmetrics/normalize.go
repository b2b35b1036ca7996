// Package textmetrics turns raw regulatory text into countable tokens and
// computes the per-section scores (word count, mandate count, reading ease)
// that the ingest pipeline persists. Everything here is a pure function of
// its input: identical text always produces identical numbers.
package textmetrics

import (
	"strings"
	"unicode"
)

// Tokenize splits text on whitespace, strips surrounding punctuation from
// each token, and drops tokens that contain no letters or digits.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// WordCount returns the number of word tokens in text. Empty text yields 0.
func WordCount(text string) int {
	return len(Tokenize(text))
}

// Abbreviations whose trailing period does not end a sentence. Lowercased,
// without the trailing dot. CFR text is dense with these; the list is
// deliberately small and stable because reading-ease scores are sensitive
// to sentence counts.
var abbreviations = map[string]struct{}{
	"u.s":   {},
	"u.s.c": {},
	"e.g":   {},
	"i.e":   {},
	"etc":   {},
	"sec":   {},
	"secs":  {},
	"no":    {},
	"nos":   {},
	"par":   {},
	"pt":    {},
	"ch":    {},
	"fig":   {},
	"cf":    {},
	"vs":    {},
	"stat":  {},
	"cong":  {},
	"supp":  {},
	"amdt":  {},
	"rev":   {},
}

// SentenceCount counts sentence boundaries. A boundary is a field ending in
// '?', '!', or a '.' that does not terminate an abbreviation, a single
// letter, or a bare list enumerator such as "1." or "(a).". The heuristic is
// stable: the same input always yields the same count.
func SentenceCount(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		// Trailing quotes and closing brackets may follow the terminator.
		trimmed := strings.TrimRight(field, `"')]}`)
		if trimmed == "" {
			continue
		}
		switch trimmed[len(trimmed)-1] {
		case '?', '!':
			count++
		case '.':
			if endsSentence(trimmed) {
				count++
			}
		}
	}
	return count
}

func endsSentence(field string) bool {
	core := strings.ToLower(strings.TrimRight(field, "."))
	core = strings.TrimLeft(core, `"'([{`)
	if core == "" {
		return false
	}
	if _, ok := abbreviations[core]; ok {
		return false
	}
	// Single letters ("a.", "B.") and bare enumerators ("1.", "(iv).")
	// introduce list items rather than end sentences.
	if len(core) == 1 {
		return false
	}
	if isEnumerator(core) {
		return false
	}
	return true
}

func isEnumerator(core string) bool {
	core = strings.TrimRight(core, ")]")
	if core == "" {
		return false
	}
	digits := true
	roman := true
	for _, r := range core {
		if !unicode.IsDigit(r) {
			digits = false
		}
		if !strings.ContainsRune("ivxlcdm", r) {
			roman = false
		}
	}
	return digits || (roman && len(core) <= 4)
}
