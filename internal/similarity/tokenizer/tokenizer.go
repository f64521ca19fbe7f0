// Package tokenizer turns free text into the canonical set of significant
// words used by the similarity engine. It normalises Unicode, lower-cases the
// input, strips every character that is not a Latin letter or whitespace, and
// drops short words and Portuguese stop-words.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minWordLen is the shortest word kept; anything with fewer runes is noise.
const minWordLen = 3

var stopWords = map[string]struct{}{
	"a": {}, "o": {}, "e": {}, "de": {}, "da": {}, "do": {}, "em": {},
	"um": {}, "uma": {}, "para": {}, "com": {}, "por": {}, "que": {},
	"se": {}, "na": {}, "no": {}, "as": {}, "os": {}, "das": {}, "dos": {},
	"nas": {}, "nos": {}, "ao": {}, "à": {}, "pela": {}, "pelo": {},
	"pelas": {}, "pelos": {}, "ser": {}, "ter": {}, "ou": {}, "mais": {},
	"como": {}, "mas": {}, "não": {}, "sua": {}, "seu": {}, "suas": {},
	"seus": {}, "esta": {}, "este": {}, "estas": {}, "estes": {},
	"essa": {}, "esse": {}, "essas": {}, "esses": {}, "já": {}, "foi": {},
	"são": {}, "tem": {}, "têm": {}, "muito": {}, "pode": {}, "podem": {},
	"sobre": {}, "também": {}, "quando": {}, "onde": {}, "sistema": {},
	"através": {},
}

// accented lists the non-ASCII lower-case letters that survive filtering.
const accented = "áàâãéèêíïóôõöúçñ"

// Set is an unordered collection of unique normalised words.
type Set map[string]struct{}

// Has reports whether word is in the set.
func (s Set) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Tokenize returns the set of significant words in text. Blank text yields
// an empty, non-nil set.
func Tokenize(text string) Set {
	words := split(text)
	set := make(Set, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Words returns the significant words of text in order of first appearance,
// without duplicates.
func Words(text string) []string {
	words := split(text)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// IsStopWord reports whether word (already lower-cased) is discarded as a
// stop-word.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

func split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = strings.ToLower(norm.NFC.String(text))
	cleaned := strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, text)
	fields := strings.Fields(cleaned)
	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minWordLen {
			continue
		}
		if IsStopWord(f) {
			continue
		}
		words = append(words, f)
	}
	return words
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case unicode.IsSpace(r):
		return true
	case r < utf8.RuneSelf:
		return false
	default:
		return strings.ContainsRune(accented, r)
	}
}
