package alerting

import (
	"context"
	"io"
	"sync"

	"token-price-alerts/internal/watchlist"
)

// AudioSink emits a terminal bell cue: one for an upward crossing, two for a
// downward one. Disabled by configuration it is a silent no-op, not an
// error.
type AudioSink struct {
	enabled bool
	mu      sync.Mutex
	out     io.Writer
}

// NewAudioSink builds the audio cue sink writing to out.
func NewAudioSink(enabled bool, out io.Writer) *AudioSink {
	return &AudioSink{enabled: enabled, out: out}
}

// Name identifies the sink in logs and metrics.
func (a *AudioSink) Name() string { return "audio" }

// Deliver plays the cue for the event's direction.
func (a *AudioSink) Deliver(ctx context.Context, event Event) error {
	if !a.enabled {
		return nil
	}

	cue := "\a"
	if event.Direction == watchlist.Down {
		cue = "\a\a"
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := io.WriteString(a.out, cue)
	return err
}

var _ Sink = (*AudioSink)(nil)
