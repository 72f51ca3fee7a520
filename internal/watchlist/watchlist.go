package watchlist

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/config"
)

// Direction labels which way a threshold is crossed.
type Direction string

const (
	// Up fires when the USD price reaches or exceeds the threshold.
	Up Direction = "UP"
	// Down fires when the USD price reaches or falls below the threshold.
	Down Direction = "DOWN"
)

// Rule is a single threshold in a ladder. Direction and Threshold are fixed
// at construction; Completed flips false→true exactly once, and only the
// alert engine writes it.
type Rule struct {
	Direction Direction
	Threshold decimal.Decimal
	Completed bool
}

// Token identifies one watched asset.
type Token struct {
	ID      common.Address
	Name    string
	DexPair string
}

// Entry couples a token with its ordered threshold ladders.
type Entry struct {
	Token      Token
	AlertsUp   []*Rule
	AlertsDown []*Rule
}

// NextPending returns the first incomplete rule of the given direction, or
// nil when the ladder is empty or exhausted. Rules behind it stay invisible
// until it completes.
func (e *Entry) NextPending(d Direction) *Rule {
	rules := e.AlertsUp
	if d == Down {
		rules = e.AlertsDown
	}
	for _, r := range rules {
		if !r.Completed {
			return r
		}
	}
	return nil
}

// Watchlist holds all configured entries in declared order.
type Watchlist struct {
	entries map[common.Address]*Entry
	order   []common.Address
}

// FromConfig builds the watchlist from parsed configuration. Any malformed
// token or threshold is a startup failure, never a runtime skip.
func FromConfig(tokens []config.TokenConfig) (*Watchlist, error) {
	w := &Watchlist{entries: make(map[common.Address]*Entry, len(tokens))}

	for i, tc := range tokens {
		if !common.IsHexAddress(tc.Address) {
			return nil, fmt.Errorf("tokens[%d]: invalid address %q", i, tc.Address)
		}
		if tc.Name == "" {
			return nil, fmt.Errorf("tokens[%d]: name is required", i)
		}

		addr := common.HexToAddress(tc.Address)
		if _, exists := w.entries[addr]; exists {
			return nil, fmt.Errorf("tokens[%d]: duplicate address %s", i, addr.Hex())
		}

		up, err := buildLadder(Up, tc.AlertsUp)
		if err != nil {
			return nil, fmt.Errorf("tokens[%d] (%s) alerts_up: %w", i, tc.Name, err)
		}
		down, err := buildLadder(Down, tc.AlertsDown)
		if err != nil {
			return nil, fmt.Errorf("tokens[%d] (%s) alerts_down: %w", i, tc.Name, err)
		}

		entry := &Entry{
			Token: Token{
				ID:      addr,
				Name:    tc.Name,
				DexPair: tc.DexPair,
			},
			AlertsUp:   up,
			AlertsDown: down,
		}
		w.entries[addr] = entry
		w.order = append(w.order, addr)
	}

	return w, nil
}

func buildLadder(d Direction, thresholds []string) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(thresholds))
	for i, raw := range thresholds {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("threshold[%d] %q is not a number", i, raw)
		}
		rules = append(rules, &Rule{Direction: d, Threshold: value})
	}
	return rules, nil
}

// Lookup finds the entry for a token address.
func (w *Watchlist) Lookup(addr common.Address) (*Entry, bool) {
	entry, ok := w.entries[addr]
	return entry, ok
}

// Entries returns all entries in declared order.
func (w *Watchlist) Entries() []*Entry {
	result := make([]*Entry, 0, len(w.order))
	for _, addr := range w.order {
		result = append(result, w.entries[addr])
	}
	return result
}

// Addresses returns the declared token addresses, in order.
func (w *Watchlist) Addresses() []common.Address {
	result := make([]common.Address, len(w.order))
	copy(result, w.order)
	return result
}

// Len reports the number of watched tokens.
func (w *Watchlist) Len() int {
	return len(w.order)
}
