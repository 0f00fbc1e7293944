package persona

import (
	"context"
	"math/rand/v2"
	"time"
)

// CannedResponder answers from the static per-persona table after an
// artificial thinking delay of Delay plus up to Jitter.
type CannedResponder struct {
	Delay  time.Duration
	Jitter time.Duration
}

// Respond classifies text and returns the persona's reply for it.
func (r CannedResponder) Respond(ctx context.Context, id ID, text string) (string, error) {
	d, err := Lookup(id)
	if err != nil {
		return "", err
	}
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return d.Response(Classify(text)), nil
}

func (r CannedResponder) wait(ctx context.Context) error {
	delay := r.Delay
	if r.Jitter > 0 {
		delay += rand.N(r.Jitter)
	}
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
