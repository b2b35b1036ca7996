package textmetrics

import "strings"

// ReadingEase computes the Flesch reading-ease score:
//
//	206.835 - 1.015*(words/sentences) - 84.6*(syllables/words)
//
// Higher scores read easier. The formula is nominally 0-100 but is not
// clamped; legal prose routinely scores below zero. Returns ok=false for
// degenerate text with no words or no sentences, which callers must skip
// rather than record.
func ReadingEase(text string) (score float64, ok bool) {
	words := Tokenize(text)
	sentences := SentenceCount(text)
	if len(words) == 0 || sentences == 0 {
		return 0, false
	}

	syllables := 0
	for _, w := range words {
		syllables += syllableCount(w)
	}

	wordCount := float64(len(words))
	score = 206.835 - 1.015*(wordCount/float64(sentences)) - 84.6*(float64(syllables)/wordCount)
	return score, true
}

// syllableCount estimates syllables as the number of vowel groups, dropping
// a silent trailing "e" (but keeping consonant-"le" endings), with a floor
// of one syllable per word. Tokens without letters (bare numbers, section
// symbols) count as one syllable.
func syllableCount(word string) int {
	word = strings.ToLower(word)

	letters := make([]rune, 0, len(word))
	for _, r := range word {
		if r >= 'a' && r <= 'z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return 1
	}

	groups := 0
	prevVowel := false
	for _, r := range letters {
		v := isVowel(r)
		if v && !prevVowel {
			groups++
		}
		prevVowel = v
	}

	n := len(letters)
	if n >= 2 && letters[n-1] == 'e' && !isVowel(letters[n-2]) && groups > 1 {
		// Silent final "e" unless it forms a consonant-"le" syllable
		// ("table", "rule" drop it; "able" keeps its count via the floor).
		if !(letters[n-2] == 'l' && n >= 3 && !isVowel(letters[n-3])) {
			groups--
		}
	}

	if groups < 1 {
		return 1
	}
	return groups
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
