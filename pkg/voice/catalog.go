package voice

import (
	"context"
	"sync"
	"time"

	"github.com/bloomwell/bloom/pkg/model"
)

// DefaultCatalogTimeout bounds AwaitCatalog.
const DefaultCatalogTimeout = 2 * time.Second

// Catalog is the host's voice list. It may be empty until the platform has
// enumerated its voices. Changed returns a channel that is closed on the
// next change to the list.
type Catalog interface {
	Voices() []model.VoiceDescriptor
	Changed() <-chan struct{}
}

// AwaitCatalog returns the catalog's voices as soon as there are any, or
// whatever is available once timeout elapses or ctx is done.
func AwaitCatalog(ctx context.Context, c Catalog, timeout time.Duration) []model.VoiceDescriptor {
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		changed := c.Changed()
		if v := c.Voices(); len(v) > 0 {
			return v
		}
		select {
		case <-changed:
		case <-deadline.C:
			return c.Voices()
		case <-ctx.Done():
			return c.Voices()
		}
	}
}

// broadcast holds a voice list and a change channel.
type broadcast struct {
	mu      sync.RWMutex
	voices  []model.VoiceDescriptor
	changed chan struct{}
}

func newBroadcast() *broadcast {
	return &broadcast{changed: make(chan struct{})}
}

func (b *broadcast) Voices() []model.VoiceDescriptor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.VoiceDescriptor, len(b.voices))
	copy(out, b.voices)
	return out
}

func (b *broadcast) Changed() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.changed
}

func (b *broadcast) set(voices []model.VoiceDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voices = append([]model.VoiceDescriptor(nil), voices...)
	close(b.changed)
	b.changed = make(chan struct{})
}

// StaticCatalog is an in-process catalog, replaced wholesale with Set.
type StaticCatalog struct {
	*broadcast
}

var _ Catalog = (*StaticCatalog)(nil)

func NewStaticCatalog(voices ...model.VoiceDescriptor) *StaticCatalog {
	c := &StaticCatalog{broadcast: newBroadcast()}
	c.voices = append(c.voices, voices...)
	return c
}

// Set replaces the voice list and wakes waiters.
func (c *StaticCatalog) Set(voices ...model.VoiceDescriptor) { c.set(voices) }
