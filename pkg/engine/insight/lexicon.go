package insight

import (
	"strings"
	"unicode"
)

// Extractor pulls affect words out of a free-text note.
type Extractor interface {
	Extract(note string) []string
}

// DefaultVocabulary is the closed set of affect-positive words.
var DefaultVocabulary = []string{
	"good", "great", "happy", "better", "hope", "grateful",
	"love", "joy", "peace", "calm", "strong",
}

// Lexicon matches whitespace tokens against a closed vocabulary.
type Lexicon struct {
	words map[string]struct{}
}

// NewLexicon builds a lexicon; an empty list means DefaultVocabulary.
func NewLexicon(words ...string) *Lexicon {
	if len(words) == 0 {
		words = DefaultVocabulary
	}
	l := &Lexicon{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		l.words[strings.ToLower(w)] = struct{}{}
	}
	return l
}

// Extract lowercases the note, splits on whitespace, trims punctuation
// around each token and returns vocabulary hits in order of appearance.
func (l *Lexicon) Extract(note string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(note)) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if _, ok := l.words[tok]; ok {
			out = append(out, tok)
		}
	}
	return out
}

var _ Extractor = (*Lexicon)(nil)
