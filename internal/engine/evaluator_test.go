package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"token-price-alerts/internal/watchlist"
)

func upLadder(thresholds ...string) []*watchlist.Rule {
	return ladder(watchlist.Up, thresholds)
}

func downLadder(thresholds ...string) []*watchlist.Rule {
	return ladder(watchlist.Down, thresholds)
}

func ladder(d watchlist.Direction, thresholds []string) []*watchlist.Rule {
	rules := make([]*watchlist.Rule, 0, len(thresholds))
	for _, raw := range thresholds {
		rules = append(rules, &watchlist.Rule{Direction: d, Threshold: decimal.RequireFromString(raw)})
	}
	return rules
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluateComputesRoundedPrice(t *testing.T) {
	entry := &watchlist.Entry{Token: watchlist.Token{Name: "DAI"}}

	// 2000 * 0.0005 = 1.0000
	result := Evaluate(entry, dec("2000"), dec("0.0005"))
	if result.PriceUSD.StringFixed(PricePrecision) != "1.0000" {
		t.Fatalf("expected price 1.0000, got %s", result.PriceUSD)
	}
}

func TestEvaluateFiresFirstPendingOnly(t *testing.T) {
	entry := &watchlist.Entry{AlertsUp: upLadder("100", "200")}

	// Price overshoots both thresholds in one tick; only the first rule may
	// fire this cycle.
	result := Evaluate(entry, dec("250"), dec("1"))
	if result.Up == nil {
		t.Fatal("expected an up rule to fire")
	}
	if result.Up.Threshold.Cmp(dec("100")) != 0 {
		t.Fatalf("expected threshold 100 to fire first, got %s", result.Up.Threshold)
	}

	result.Up.Completed = true
	result = Evaluate(entry, dec("250"), dec("1"))
	if result.Up == nil || result.Up.Threshold.Cmp(dec("200")) != 0 {
		t.Fatalf("expected threshold 200 on the next cycle, got %+v", result.Up)
	}
}

func TestEvaluateDirectionsIndependent(t *testing.T) {
	entry := &watchlist.Entry{
		AlertsUp:   upLadder("100"),
		AlertsDown: downLadder("90"),
	}

	result := Evaluate(entry, dec("110"), dec("1"))
	if result.Up == nil {
		t.Fatal("up rule should fire at 110 >= 100")
	}
	if result.Down != nil {
		t.Fatal("down rule must not fire while price stays above 90")
	}
}

func TestEvaluateDownCrossing(t *testing.T) {
	entry := &watchlist.Entry{AlertsDown: downLadder("90")}

	result := Evaluate(entry, dec("90"), dec("1"))
	if result.Down == nil {
		t.Fatal("down rule should fire at price == threshold")
	}
}

func TestEvaluateBoundaryEquality(t *testing.T) {
	entry := &watchlist.Entry{AlertsUp: upLadder("1.0")}

	result := Evaluate(entry, dec("2000"), dec("0.0005"))
	if result.Up == nil {
		t.Fatal("1.0000 >= 1.0 should fire")
	}
}

func TestEvaluateRoundsBeforeComparing(t *testing.T) {
	// Raw price 1.000049999 rounds to 1.0000, below a 1.00005 threshold.
	// The comparison uses the rounded value, same as the reported price.
	entry := &watchlist.Entry{AlertsUp: upLadder("1.00005")}

	result := Evaluate(entry, dec("1.000049999"), dec("1"))
	if result.Up != nil {
		t.Fatalf("rounded price %s must not cross 1.00005", result.PriceUSD)
	}
	if result.PriceUSD.Cmp(dec("1")) != 0 {
		t.Fatalf("expected rounded price 1.0000, got %s", result.PriceUSD)
	}
}

func TestEvaluateEmptyAndExhaustedLadders(t *testing.T) {
	entry := &watchlist.Entry{}
	result := Evaluate(entry, dec("100"), dec("1"))
	if result.Up != nil || result.Down != nil {
		t.Fatal("empty ladders must not fire")
	}

	entry = &watchlist.Entry{AlertsUp: upLadder("50")}
	entry.AlertsUp[0].Completed = true
	result = Evaluate(entry, dec("100"), dec("1"))
	if result.Up != nil {
		t.Fatal("completed rule must never re-fire")
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	entry := &watchlist.Entry{AlertsUp: upLadder("100")}

	for i := 0; i < 3; i++ {
		result := Evaluate(entry, dec("150"), dec("1"))
		if result.Up == nil {
			t.Fatalf("cycle %d: rule should be reported as firing until committed", i)
		}
		if entry.AlertsUp[0].Completed {
			t.Fatal("Evaluate must not set Completed")
		}
	}
}
