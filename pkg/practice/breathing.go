package practice

import "time"

// Phase of a breathing cycle.
type Phase string

const (
	Inhale Phase = "inhale"
	Hold   Phase = "hold"
	Exhale Phase = "exhale"
)

// Step is one timed phase.
type Step struct {
	Phase       Phase         `json:"phase"`
	Duration    time.Duration `json:"duration"`
	Instruction string        `json:"instruction"`
}

// Breathing478 is the 4-7-8 technique.
var Breathing478 = []Step{
	{Phase: Inhale, Duration: 4 * time.Second, Instruction: "Breathe in slowly through your nose"},
	{Phase: Hold, Duration: 7 * time.Second, Instruction: "Hold your breath gently"},
	{Phase: Exhale, Duration: 8 * time.Second, Instruction: "Exhale slowly through your mouth"},
}

// CycleLength is the duration of one pass through steps.
func CycleLength(steps []Step) time.Duration {
	var total time.Duration
	for _, s := range steps {
		total += s.Duration
	}
	return total
}

// PhaseAt returns the step active elapsed into the exercise, the time left
// in that step and the number of completed cycles.
func PhaseAt(steps []Step, elapsed time.Duration) (Step, time.Duration, int) {
	cycle := CycleLength(steps)
	if cycle <= 0 {
		return Step{}, 0, 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	n := int(elapsed / cycle)
	into := elapsed % cycle
	for _, s := range steps {
		if into < s.Duration {
			return s, s.Duration - into, n
		}
		into -= s.Duration
	}
	// unreachable while every duration is positive
	last := steps[len(steps)-1]
	return last, 0, n
}
