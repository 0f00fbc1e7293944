package voice

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/bloomwell/bloom/pkg/model"
)

// NopSynthesizer accepts every utterance and plays nothing.
type NopSynthesizer struct{}

func (NopSynthesizer) Speak(ctx context.Context, _ Utterance) error { return ctx.Err() }

// CommandSynthesizer shells out to an espeak-compatible command line:
// -v voice, -p pitch (0-99), -s words per minute, -a amplitude (0-200).
type CommandSynthesizer struct {
	Command string
}

// NewCommandSynthesizer resolves command on PATH.
func NewCommandSynthesizer(command string) (*CommandSynthesizer, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrVoiceUnavailable, command, err)
	}
	return &CommandSynthesizer{Command: path}, nil
}

func (c *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, c.Command, c.Args(u)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %s: %w: %s", c.Command, err, out)
	}
	return nil
}

// Args maps the utterance onto command line flags.
func (c *CommandSynthesizer) Args(u Utterance) []string {
	var args []string
	if u.Voice != nil && u.Voice.Name != "" {
		args = append(args, "-v", u.Voice.Name)
	}
	args = append(args,
		"-p", strconv.Itoa(scale(u.Pitch, 50, 0, 99)),
		"-s", strconv.Itoa(scale(u.Rate, 175, 80, 450)),
		"-a", strconv.Itoa(scale(u.Volume, 100, 0, 200)),
		"--", u.Text,
	)
	return args
}

func scale(mult float64, base, lo, hi int) int {
	if mult <= 0 {
		mult = 1
	}
	v := int(math.Round(mult * float64(base)))
	return max(lo, min(v, hi))
}
