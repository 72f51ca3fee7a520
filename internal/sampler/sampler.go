package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/fetcher"
	"token-price-alerts/internal/metrics"
	"token-price-alerts/internal/scheduler"
)

// Snapshot is the most recent view of the price source. Complete is true
// only once both the reference price and the token batch have been fetched
// successfully at least once; either side may be stale if the source is
// down, but never half-written.
type Snapshot struct {
	ReferenceUSD decimal.Decimal
	Rates        map[common.Address]fetcher.TokenRate
	Complete     bool
	ReferenceAt  time.Time
	RatesAt      time.Time
}

// Options tune the sampling cadences.
type Options struct {
	ReferenceInterval time.Duration
	TokenInterval     time.Duration
	StartupDelay      time.Duration
}

// Sampler polls the reference price and the token rate batch on independent
// timers and exposes the latest combined snapshot. It never evaluates
// anything itself; consumers pull via Snapshot and wake on Updates.
type Sampler struct {
	reference fetcher.ReferencePriceFetcher
	rates     fetcher.TokenRateFetcher
	addrs     []common.Address
	opts      Options
	logger    zerolog.Logger

	mu         sync.RWMutex
	refPrice   decimal.Decimal
	refOK      bool
	refAt      time.Time
	tokenRates map[common.Address]fetcher.TokenRate
	ratesOK    bool
	ratesAt    time.Time

	updates chan struct{}
}

// New constructs a sampler for the given token addresses.
func New(reference fetcher.ReferencePriceFetcher, rates fetcher.TokenRateFetcher, addrs []common.Address, opts Options, logger zerolog.Logger) *Sampler {
	return &Sampler{
		reference: reference,
		rates:     rates,
		addrs:     addrs,
		opts:      opts,
		logger:    logger.With().Str("component", "sampler").Logger(),
		updates:   make(chan struct{}, 1),
	}
}

// Run blocks, driving both polling cadences until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	refSched := scheduler.New(scheduler.Options{
		Name:           "reference_price",
		Interval:       s.opts.ReferenceInterval,
		StartupDelay:   s.opts.StartupDelay,
		RunImmediately: true,
	}, s.logger)

	rateSched := scheduler.New(scheduler.Options{
		Name:           "token_rates",
		Interval:       s.opts.TokenInterval,
		StartupDelay:   s.opts.StartupDelay,
		RunImmediately: true,
	}, s.logger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = refSched.Run(ctx, s.fetchReference)
	}()
	go func() {
		defer wg.Done()
		_ = rateSched.Run(ctx, s.fetchTokenRates)
	}()
	wg.Wait()

	return ctx.Err()
}

// Updates signals that a fetch has refreshed the snapshot. Signals coalesce;
// consumers should re-read Snapshot rather than count them.
func (s *Sampler) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns the latest known view. Safe for concurrent use.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rates := make(map[common.Address]fetcher.TokenRate, len(s.tokenRates))
	for addr, rate := range s.tokenRates {
		rates[addr] = rate
	}

	return Snapshot{
		ReferenceUSD: s.refPrice,
		Rates:        rates,
		Complete:     s.refOK && s.ratesOK,
		ReferenceAt:  s.refAt,
		RatesAt:      s.ratesAt,
	}
}

func (s *Sampler) fetchReference(ctx context.Context, at time.Time) error {
	price, err := s.reference.FetchReferencePrice(ctx)
	if err != nil {
		// Keep the previous value; the next tick retries.
		metrics.FetchesTotal.WithLabelValues("reference", "failed").Inc()
		return err
	}
	metrics.FetchesTotal.WithLabelValues("reference", "ok").Inc()

	s.mu.Lock()
	s.refPrice = price
	s.refOK = true
	s.refAt = at
	s.mu.Unlock()

	s.signal()
	return nil
}

func (s *Sampler) fetchTokenRates(ctx context.Context, at time.Time) error {
	rates, err := s.rates.FetchTokenRates(ctx, s.addrs)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("tokens", "failed").Inc()
		return err
	}
	metrics.FetchesTotal.WithLabelValues("tokens", "ok").Inc()

	s.mu.Lock()
	s.tokenRates = rates
	s.ratesOK = true
	s.ratesAt = at
	s.mu.Unlock()

	s.signal()
	return nil
}

func (s *Sampler) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
