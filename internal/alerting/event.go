package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/watchlist"
)

// Event describes one fired threshold alert.
type Event struct {
	ID        string              `json:"id"`
	Token     string              `json:"token"`
	Address   common.Address      `json:"address"`
	Direction watchlist.Direction `json:"direction"`
	Threshold decimal.Decimal     `json:"threshold"`
	PriceUSD  decimal.Decimal     `json:"price_usd"`
	Cycle     uint64              `json:"cycle"`
	FiredAt   time.Time           `json:"fired_at"`
}

// Message renders the alert text shared by the message sinks. The price is
// printed at the same 4-decimal precision used for the crossing comparison.
func (e Event) Message() string {
	return fmt.Sprintf("Token alert: %s %s %s, price: %s",
		e.Token, e.Direction, e.Threshold.String(), e.PriceUSD.StringFixed(4))
}

// Sink is one notification channel. Deliveries are independent; an error
// from one sink never affects another.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}
