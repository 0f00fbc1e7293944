// Package voice picks a synthesis voice for a persona and plays utterances
// through a single shared synthesizer.
package voice

import (
	"sort"
	"strings"

	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/persona"
)

// DefaultVolume is applied to every persona.
const DefaultVolume = 0.9

// Source records which resolution stage chose the voice.
type Source string

const (
	SourcePersona Source = "persona"
	SourceEnglish Source = "english"
	SourceAny     Source = "any"
	SourceDefault Source = "default"
)

// Selection is the resolved voice plus the persona's prosody. A nil Voice
// means the platform default.
type Selection struct {
	Persona persona.ID             `json:"persona"`
	Voice   *model.VoiceDescriptor `json:"voice,omitempty"`
	Pitch   float64                `json:"pitch"`
	Rate    float64                `json:"rate"`
	Volume  float64                `json:"volume"`
	Source  Source                 `json:"source"`
}

const englishPrefix = "en"

var (
	femaleNames = []string{"samantha", "karen", "susan", "victoria", "allison", "helen", "kate", "zira", "hazel", "fiona"}
	maleNames   = []string{"daniel", "alex", "tom", "david", "fred", "james", "mark", "paul", "richard", "oliver"}

	femaleMarkers = []string{"female", "woman"}
	maleMarkers   = []string{"male", "man"}
)

// Resolve maps a persona onto one of voices. It never fails for a valid
// persona: with no gender match it falls back to the first English voice,
// then to the first voice of any language, then to the platform default.
func Resolve(id persona.ID, voices []model.VoiceDescriptor) (Selection, error) {
	d, err := persona.Lookup(id)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{
		Persona: id,
		Pitch:   d.Prosody.Pitch,
		Rate:    d.Prosody.Rate,
		Volume:  DefaultVolume,
		Source:  SourceDefault,
	}

	english := English(voices)
	if c := Candidates(d.Gender, english); len(c) > 0 {
		v := assign(c, d.Gender)[id]
		sel.Voice, sel.Source = &v, SourcePersona
		return sel, nil
	}
	if len(english) > 0 {
		v := english[0]
		sel.Voice, sel.Source = &v, SourceEnglish
		return sel, nil
	}
	if len(voices) > 0 {
		v := voices[0]
		sel.Voice, sel.Source = &v, SourceAny
	}
	return sel, nil
}

// English keeps voices whose language tag starts with "en".
func English(voices []model.VoiceDescriptor) []model.VoiceDescriptor {
	var out []model.VoiceDescriptor
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), englishPrefix) {
			out = append(out, v)
		}
	}
	return out
}

// Candidates returns the voices that look like g, deduplicated by name in
// input order.
func Candidates(g persona.Gender, voices []model.VoiceDescriptor) []model.VoiceDescriptor {
	seen := make(map[string]bool, len(voices))
	var out []model.VoiceDescriptor
	for _, v := range voices {
		if seen[v.Name] || !matchesGender(g, strings.ToLower(v.Name)) {
			continue
		}
		seen[v.Name] = true
		out = append(out, v)
	}
	return out
}

func matchesGender(g persona.Gender, name string) bool {
	switch g {
	case persona.Female:
		return containsAny(name, femaleNames) || containsAny(name, femaleMarkers)
	case persona.Male:
		if containsAny(name, maleNames) {
			return true
		}
		// "female" contains "male", "woman" and "samantha" contain "man".
		return containsAny(name, maleMarkers) && !containsAny(name, femaleMarkers) && !containsAny(name, femaleNames)
	}
	return false
}

// assign shares candidates out among every persona of gender g in rank
// order, so personas of the same gender get different voices while there
// are enough to go round.
func assign(candidates []model.VoiceDescriptor, g persona.Gender) map[persona.ID]model.VoiceDescriptor {
	var group []persona.Descriptor
	for _, d := range persona.All() {
		if d.Gender == g {
			group = append(group, d)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].PreferenceRank < group[j].PreferenceRank })

	taken := make([]bool, len(candidates))
	out := make(map[persona.ID]model.VoiceDescriptor, len(group))
	for _, d := range group {
		i := pick(candidates, taken, d)
		taken[i] = true
		out[d.ID] = candidates[i]
	}
	return out
}

func pick(candidates []model.VoiceDescriptor, taken []bool, d persona.Descriptor) int {
	for _, pref := range d.VoicePreferences {
		for i, c := range candidates {
			if !taken[i] && strings.Contains(strings.ToLower(c.Name), pref) {
				return i
			}
		}
	}
	if r := d.PreferenceRank; r < len(candidates) && !taken[r] {
		return r
	}
	for i := range candidates {
		if !taken[i] {
			return i
		}
	}
	return d.PreferenceRank % len(candidates)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
