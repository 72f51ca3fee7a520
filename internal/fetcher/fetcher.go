package fetcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TokenRate is one token's latest derived exchange rate against the
// reference unit, with its display name as reported by the source.
type TokenRate struct {
	Name string
	Rate decimal.Decimal
}

// ReferencePriceFetcher retrieves the USD price of the reference unit.
type ReferencePriceFetcher interface {
	FetchReferencePrice(ctx context.Context) (decimal.Decimal, error)
}

// TokenRateFetcher retrieves the derived rates for a batch of tokens.
type TokenRateFetcher interface {
	FetchTokenRates(ctx context.Context, addrs []common.Address) (map[common.Address]TokenRate, error)
}
