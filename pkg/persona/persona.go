// Package persona defines the fixed set of conversational companions.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a persona. The set is closed.
type ID uint8

const (
	Asha ID = iota
	Kai
	Mira

	numPersonas
)

var ErrUnknownPersona = errors.New("unknown persona")

// Gender is the declared gender used for voice matching.
type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// Prosody multipliers applied to every utterance of a persona.
type Prosody struct {
	Pitch float64 `json:"pitch"`
	Rate  float64 `json:"rate"`
}

// Descriptor is the static record for one persona.
type Descriptor struct {
	ID          ID      `json:"-"`
	Slug        string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	Avatar      string  `json:"avatar"`
	Description string  `json:"description"`
	Gender      Gender  `json:"gender"`
	Prosody     Prosody `json:"prosody"`
	// VoicePreferences are name substrings tried in order.
	VoicePreferences []string `json:"voicePreferences"`
	// PreferenceRank orders same-gender personas when voices are shared out.
	PreferenceRank int    `json:"-"`
	Greeting       string `json:"greeting"`

	responses [numSentiments]string
}

var table = [numPersonas]Descriptor{
	Asha: {
		ID:               Asha,
		Slug:             "asha",
		DisplayName:      "Asha",
		Role:             "Gentle Sister",
		Avatar:           "👩🏽‍💼",
		Description:      "A gentle older sister who speaks softly and offers warm encouragement",
		Gender:           Female,
		Prosody:          Prosody{Pitch: 1.4, Rate: 0.6},
		VoicePreferences: []string{"samantha", "allison", "karen"},
		PreferenceRank:   0,
		Greeting:         "Hello dear, I'm Asha. I'm here to listen with a gentle heart. How are you feeling in this moment?",
		responses: [numSentiments]string{
			Neutral:  "I'm listening to every word you're sharing, and I want you to know that your thoughts and feelings matter to me. What else is on your heart right now?",
			Negative: "I can feel the weight you're carrying right now, and I want you to know that it's okay to feel this way. Your emotions are valid, and you don't have to carry this alone.",
			Positive: "Oh, this makes my heart so happy! I can hear the lightness in your words, and it's beautiful. These moments of joy are so precious. Let's celebrate this together.",
		},
	},
	Kai: {
		ID:               Kai,
		Slug:             "kai",
		DisplayName:      "Kai",
		Role:             "Upbeat Friend",
		Avatar:           "🧑🏻‍🎨",
		Description:      "An upbeat best friend who uses humor and motivational pep-talks",
		Gender:           Male,
		Prosody:          Prosody{Pitch: 0.7, Rate: 0.8},
		VoicePreferences: []string{"daniel", "alex", "david"},
		PreferenceRank:   0,
		Greeting:         "Hey there! I'm Kai, and I'm genuinely excited to chat with you. What's been on your mind lately?",
		responses: [numSentiments]string{
			Neutral:  "I love your energy! There's something really genuine about how you're sharing this with me. What's been the highlight of your day so far?",
			Negative: "Hey, I hear you're going through a tough time, and I want you to know that reaching out like this? That's actually pretty amazing. You're stronger than you realize.",
			Positive: "YES! This is exactly what I love to hear! You're absolutely glowing right now, and it's infectious. Tell me more about what's making you feel this good!",
		},
	},
	Mira: {
		ID:               Mira,
		Slug:             "mira",
		DisplayName:      "Dr. Mira",
		Role:             "Professional Coach",
		Avatar:           "👩🏾‍⚕️",
		Description:      "A professional therapist-like coach who provides thoughtful coping strategies",
		Gender:           Female,
		Prosody:          Prosody{Pitch: 1.1, Rate: 0.65},
		VoicePreferences: []string{"helen", "kate", "victoria", "zira"},
		PreferenceRank:   1,
		Greeting:         "Hello, I'm Dr. Mira. I'm here to walk alongside you in your healing journey. What would you like to explore together today?",
		responses: [numSentiments]string{
			Neutral:  "I'm listening carefully to what you're sharing. Sometimes our thoughts and feelings don't fit into neat categories, and that's perfectly human. What feels most important for you to be heard about right now?",
			Negative: "Thank you for sharing something so personal with me. What you're experiencing sounds incredibly challenging. When you notice these feelings arising, what do you typically do to care for yourself?",
			Positive: "It's wonderful to hear you expressing something positive. These moments of lightness are so important for our overall well-being. What do you think contributed to this shift?",
		},
	},
}

func (id ID) Valid() bool { return id < numPersonas }

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("persona(%d)", uint8(id))
	}
	return table[id].Slug
}

// MarshalText encodes the persona slug.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPersona, uint8(id))
	}
	return []byte(table[id].Slug), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID accepts a slug or display name, ignoring case.
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := range table {
		if s == table[i].Slug || s == strings.ToLower(table[i].DisplayName) {
			return table[i].ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

// Lookup returns the descriptor for id.
func Lookup(id ID) (Descriptor, error) {
	if !id.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrUnknownPersona, uint8(id))
	}
	return table[id], nil
}

// All returns every persona in ID order.
func All() []Descriptor {
	out := make([]Descriptor, 0, numPersonas)
	for _, d := range table {
		out = append(out, d)
	}
	return out
}

// Response returns the canned reply for a sentiment.
func (d Descriptor) Response(s Sentiment) string {
	if s >= numSentiments {
		s = Neutral
	}
	return d.responses[s]
}
