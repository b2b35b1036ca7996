package textmetrics

import (
	_ "embed"
	"encoding/json"
	"strings"
	"unicode"
)

// The restrictive-phrase list is versioned configuration, not code, so it can
// be audited and extended without touching the counting algorithm.
//
//go:embed mandates.json
var mandatesJSON []byte

type mandateConfig struct {
	Version int      `json:"version"`
	Terms   []string `json:"terms"`
}

var (
	mandateWords   []string
	mandatePhrases []string
)

func init() {
	var cfg mandateConfig
	if err := json.Unmarshal(mandatesJSON, &cfg); err != nil {
		panic("textmetrics: invalid mandates.json: " + err.Error())
	}
	for _, term := range cfg.Terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(term, " ") {
			mandatePhrases = append(mandatePhrases, term)
		} else {
			mandateWords = append(mandateWords, term)
		}
	}
}

// MandateCount counts occurrences of the configured restrictive terms,
// case-insensitive and word-boundary matched. Single words match whole
// tokens; multi-word phrases match runs of words in the text. Matches are
// counted independently, so "shall not" contributes to both "shall" and
// "shall not".
func MandateCount(text string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	count := 0
	for _, tok := range Tokenize(lower) {
		for _, w := range mandateWords {
			if tok == w {
				count++
			}
		}
	}
	for _, phrase := range mandatePhrases {
		count += countPhrase(lower, phrase)
	}
	return count
}

func countPhrase(text, phrase string) int {
	count := 0
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			break
		}
		i += start
		if boundaryBefore(text, i) && boundaryAfter(text, i+len(phrase)) {
			count++
		}
		start = i + 1
	}
	return count
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordRune(rune(text[i-1]))
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	return !isWordRune(rune(text[i]))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
