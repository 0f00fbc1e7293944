package persona

import "strings"

// Sentiment is the coarse classification of a user message.
type Sentiment uint8

const (
	Neutral Sentiment = iota
	Negative
	Positive

	numSentiments
)

func (s Sentiment) String() string {
	switch s {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return "neutral"
	}
}

var (
	negativeWords = []string{"sad", "depressed", "anxious", "worried", "scared"}
	positiveWords = []string{"good", "better", "happy", "grateful", "excited"}
)

// Classify matches keywords as substrings. Negative wins over positive.
func Classify(text string) Sentiment {
	lower := strings.ToLower(text)
	if containsAny(lower, negativeWords) {
		return Negative
	}
	if containsAny(lower, positiveWords) {
		return Positive
	}
	return Neutral
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
