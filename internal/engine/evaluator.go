package engine

import (
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/watchlist"
)

// PricePrecision is the decimal precision applied to the computed USD price
// before comparison and display. Comparing the rounded value is deliberate:
// a threshold finer than 4 decimals can never trigger.
const PricePrecision = 4

// Result reports which rules fire for one token on one snapshot, at most
// one per direction.
type Result struct {
	PriceUSD decimal.Decimal
	Up       *watchlist.Rule
	Down     *watchlist.Rule
}

// Evaluate computes the token's USD price and checks it against the first
// pending rule of each ladder. It never mutates rule state; committing a
// firing is the engine's job, which keeps evaluation idempotent.
func Evaluate(entry *watchlist.Entry, referenceUSD, derivedRate decimal.Decimal) Result {
	price := referenceUSD.Mul(derivedRate).Round(PricePrecision)
	result := Result{PriceUSD: price}

	if rule := entry.NextPending(watchlist.Up); rule != nil && price.Cmp(rule.Threshold) >= 0 {
		result.Up = rule
	}
	if rule := entry.NextPending(watchlist.Down); rule != nil && price.Cmp(rule.Threshold) <= 0 {
		result.Down = rule
	}

	return result
}
