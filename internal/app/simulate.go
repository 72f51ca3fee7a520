package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/alerting"
	"token-price-alerts/internal/engine"
	"token-price-alerts/internal/fetcher"
	"token-price-alerts/internal/sampler"
)

// SimulateAlert 通过给定的参考价与汇率对单个 token 模拟一次完整的告警流程。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	list, err := a.buildWatchlist()
	if err != nil {
		return err
	}

	entries := list.Entries()
	if len(entries) == 0 {
		return errors.New("no tokens configured")
	}

	target := entries[0]
	if opts.Token != "" {
		target = nil
		for _, entry := range entries {
			if strings.EqualFold(entry.Token.Name, opts.Token) {
				target = entry
				break
			}
		}
		if target == nil {
			return fmt.Errorf("token %q not found in configuration", opts.Token)
		}
	}

	sinks, closeSinks, err := a.newSinks()
	if err != nil {
		return err
	}
	defer closeSinks()

	dispatcher := alerting.NewDispatcher(sinks, a.Config.Alerting.DispatchTimeout, a.Logger)

	source := &staticSource{snap: sampler.Snapshot{
		ReferenceUSD: decimal.NewFromFloat(opts.ReferenceUSD),
		Rates: map[common.Address]fetcher.TokenRate{
			target.Token.ID: {Name: target.Token.Name, Rate: decimal.NewFromFloat(opts.DerivedRate)},
		},
		Complete: true,
	}}

	eng := engine.New(source, list, dispatcher, nil, a.Logger)
	eng.Cycle(time.Now().UTC())

	dispatcher.Close()
	return nil
}

type staticSource struct {
	snap sampler.Snapshot
}

func (s *staticSource) Snapshot() sampler.Snapshot { return s.snap }

func (s *staticSource) Updates() <-chan struct{} { return nil }

var _ engine.SnapshotSource = (*staticSource)(nil)
