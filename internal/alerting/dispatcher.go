package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"token-price-alerts/internal/metrics"
)

// Dispatcher fans a fired alert out to every registered sink. Each delivery
// runs in its own goroutine with its own timeout; failures are logged and
// counted, never retried. The alert state commit happens before Dispatch is
// called, so a failed delivery can only lose the notification, not the
// firing.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher constructs a dispatcher over the given sinks.
func NewDispatcher(sinks []Sink, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch hands the event to every sink and returns immediately.
func (d *Dispatcher) Dispatch(event Event) {
	for _, sink := range d.sinks {
		d.wg.Add(1)
		go func(s Sink) {
			defer d.wg.Done()
			d.deliver(s, event)
		}(sink)
	}
}

func (d *Dispatcher) deliver(s Sink, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := s.Deliver(ctx, event); err != nil {
		metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "failed").Inc()
		d.logger.Error().Err(err).
			Str("sink", s.Name()).
			Str("event_id", event.ID).
			Str("token", event.Token).
			Msg("sink delivery failed; alert remains marked fired")
		return
	}

	metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "ok").Inc()
	d.logger.Debug().Str("sink", s.Name()).Str("event_id", event.ID).Msg("alert delivered")
}

// Close waits for in-flight deliveries to drain.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
