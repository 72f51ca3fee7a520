package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"token-price-alerts/internal/engine"
	"token-price-alerts/internal/watchlist"
)

const dexToolsBase = "https://www.dextools.io/app/uniswap/pair-explorer/"

// Show fetches the current snapshot once and prints the watched token table.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	list, err := a.buildWatchlist()
	if err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	graph := a.newGraph()

	reference, err := graph.FetchReferencePrice(ctx)
	if err != nil {
		return fmt.Errorf("fetch reference price: %w", err)
	}

	rates, err := graph.FetchTokenRates(ctx, list.Addresses())
	if err != nil {
		return fmt.Errorf("fetch token rates: %w", err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Token\tPrice USD\tRate\tAlerts Up\tAlerts Down\tDexTools")

	for _, entry := range list.Entries() {
		priceUSD := "-"
		rateStr := "-"
		if rate, ok := rates[entry.Token.ID]; ok {
			priceUSD = reference.Mul(rate.Rate).Round(engine.PricePrecision).StringFixed(engine.PricePrecision)
			rateStr = rate.Rate.StringFixed(6)
		}

		link := "-"
		if entry.Token.DexPair != "" {
			link = dexToolsBase + entry.Token.DexPair
		}

		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Token.Name,
			priceUSD,
			rateStr,
			formatLadder(entry.AlertsUp),
			formatLadder(entry.AlertsDown),
			link,
		)
	}

	return writer.Flush()
}

func formatLadder(rules []*watchlist.Rule) string {
	if len(rules) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Completed {
			parts = append(parts, "~"+rule.Threshold.String()+"~")
			continue
		}
		parts = append(parts, rule.Threshold.String())
	}
	return strings.Join(parts, " ")
}
