package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/alerting"
	"token-price-alerts/internal/history"
	"token-price-alerts/internal/metrics"
	"token-price-alerts/internal/sampler"
	"token-price-alerts/internal/watchlist"
)

// SnapshotSource is the engine's view of the sampler.
type SnapshotSource interface {
	Snapshot() sampler.Snapshot
	Updates() <-chan struct{}
}

// Dispatcher receives fired alert events for fan-out.
type Dispatcher interface {
	Dispatch(event alerting.Event)
}

// Engine owns all mutable alert state. Cycles are serialized: one runs to
// completion, commit and dispatch hand-off included, before the next update
// signal is consumed. Completed flags are written here and nowhere else.
type Engine struct {
	source     SnapshotSource
	list       *watchlist.Watchlist
	dispatcher Dispatcher
	recorder   *history.Recorder
	logger     zerolog.Logger
	cycles     uint64
}

// New constructs the alert engine. The recorder may be nil.
func New(source SnapshotSource, list *watchlist.Watchlist, dispatcher Dispatcher, recorder *history.Recorder, logger zerolog.Logger) *Engine {
	return &Engine{
		source:     source,
		list:       list,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// Run blocks, evaluating a cycle on every sampler update until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.source.Updates():
			e.Cycle(time.Now().UTC())
		}
	}
}

// Cycle executes one evaluation pass over the latest snapshot.
func (e *Engine) Cycle(at time.Time) {
	snap := e.source.Snapshot()
	if !snap.Complete {
		metrics.IncompleteSnapshotsTotal.Inc()
		e.logger.Debug().Msg("skipping cycle on incomplete snapshot")
		return
	}

	e.cycles++
	metrics.CyclesTotal.Inc()

	var prices map[common.Address]decimal.Decimal
	if e.recorder != nil {
		prices = make(map[common.Address]decimal.Decimal, e.list.Len())
	}

	for _, entry := range e.list.Entries() {
		rate, ok := snap.Rates[entry.Token.ID]
		if !ok {
			// Present in configuration but absent from price data; an
			// anomaly, not an error.
			metrics.UnknownTokensTotal.Inc()
			e.logger.Debug().Str("token", entry.Token.Name).Msg("token missing from snapshot")
			continue
		}

		result := Evaluate(entry, snap.ReferenceUSD, rate.Rate)
		if prices != nil {
			prices[entry.Token.ID] = result.PriceUSD
		}

		e.commit(entry, result.Up, result.PriceUSD, at)
		e.commit(entry, result.Down, result.PriceUSD, at)
	}

	if e.recorder != nil {
		e.recorder.Append(history.Point{
			At:           at,
			ReferenceUSD: snap.ReferenceUSD,
			Prices:       prices,
		})
	}
}

// commit marks the rule fired and requests notification. The Completed
// write happens before dispatch, so a failed or lost delivery never
// resurrects the rule.
func (e *Engine) commit(entry *watchlist.Entry, rule *watchlist.Rule, price decimal.Decimal, at time.Time) {
	if rule == nil {
		return
	}

	rule.Completed = true
	metrics.AlertsFiredTotal.WithLabelValues(string(rule.Direction)).Inc()

	event := alerting.Event{
		ID:        uuid.NewString(),
		Token:     entry.Token.Name,
		Address:   entry.Token.ID,
		Direction: rule.Direction,
		Threshold: rule.Threshold,
		PriceUSD:  price,
		Cycle:     e.cycles,
		FiredAt:   at,
	}

	e.logger.Info().
		Str("event_id", event.ID).
		Str("token", event.Token).
		Str("direction", string(event.Direction)).
		Str("threshold", event.Threshold.String()).
		Str("price_usd", event.PriceUSD.StringFixed(PricePrecision)).
		Msg("threshold alert fired")

	if e.dispatcher != nil {
		e.dispatcher.Dispatch(event)
	}
}

// Cycles reports how many complete snapshots have been evaluated.
func (e *Engine) Cycles() uint64 {
	return e.cycles
}
