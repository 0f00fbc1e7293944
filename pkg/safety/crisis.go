// Package safety flags possible self-harm language in free text.
//
// The gate is a best-effort keyword heuristic. A positive match never blocks
// the caller's save or send; it produces a Verdict and notifies the safety
// path so crisis resources can be shown alongside the normal flow.
package safety

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// phrases are matched as lowercase substrings.
var phrases = []string{
	"kill myself",
	"end it all",
	"want to die",
	"suicide",
	"hurt myself",
	"no point living",
	"better off dead",
	"end my life",
	"can't go on",
}

// Phrases returns a copy of the high-risk phrase list.
func Phrases() []string {
	out := make([]string, len(phrases))
	copy(out, phrases)
	return out
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// IsCrisis reports whether text contains a high-risk phrase, ignoring case.
func IsCrisis(text string) bool {
	return Match(text) != ""
}

// Match returns the first phrase found in text, or "".
func Match(text string) string {
	if text == "" {
		return ""
	}
	lower := apostrophes.Replace(strings.ToLower(text))
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

// Surface names a text-entry point that consults the gate.
type Surface string

const (
	SurfaceMoodNote  Surface = "mood-note"
	SurfaceChat      Surface = "chat"
	SurfaceGratitude Surface = "gratitude"
	SurfaceBestThing Surface = "best-thing"
)

// Signal is delivered to the safety path on a match.
type Signal struct {
	Surface Surface   `json:"surface"`
	Phrase  string    `json:"phrase"`
	At      time.Time `json:"at"`
}

// Verdict is the outcome of screening one text.
type Verdict struct {
	Crisis    bool       `json:"crisis"`
	Resources []Resource `json:"resources,omitempty"`
}

// Notifier receives crisis signals. Implementations must not block.
type Notifier interface {
	CrisisDetected(Signal)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Signal)

func (f NotifierFunc) CrisisDetected(s Signal) { f(s) }

// Gate screens text from every input surface.
type Gate struct {
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewGate returns a gate. A nil notifier only logs.
func NewGate(notifier Notifier, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Gate{notifier: notifier, logger: logger, now: time.Now}
}

// Screen checks text and notifies on a match. The text itself is not logged.
func (g *Gate) Screen(surface Surface, text string) Verdict {
	phrase := Match(text)
	if phrase == "" {
		return Verdict{}
	}
	g.logger.Warn("crisis language detected", "surface", surface)
	if g.notifier != nil {
		g.notifier.CrisisDetected(Signal{Surface: surface, Phrase: phrase, At: g.now()})
	}
	return Verdict{Crisis: true, Resources: Resources()}
}

// Recorder is a Notifier that keeps the signals it receives.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

func (r *Recorder) CrisisDetected(s Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

// Signals returns the recorded signals.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Signal, len(r.signals))
	copy(out, r.signals)
	return out
}
