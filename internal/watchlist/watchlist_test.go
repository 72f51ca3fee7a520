package watchlist

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/config"
)

const daiAddress = "0x6B175474E89094C44Da98b954EedeAC495271d0F"

func TestFromConfigBuildsLadders(t *testing.T) {
	list, err := FromConfig([]config.TokenConfig{
		{
			Address:    daiAddress,
			Name:       "DAI",
			DexPair:    "0xa478c2975ab1ea89e8196811f51a7b7ade33eb11",
			AlertsUp:   []string{"1", "2", "5"},
			AlertsDown: []string{"0.9"},
		},
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	if list.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", list.Len())
	}

	entry, ok := list.Lookup(common.HexToAddress(daiAddress))
	if !ok {
		t.Fatal("DAI entry not found")
	}
	if len(entry.AlertsUp) != 3 || len(entry.AlertsDown) != 1 {
		t.Fatalf("unexpected ladder lengths: up=%d down=%d", len(entry.AlertsUp), len(entry.AlertsDown))
	}
	if entry.AlertsUp[1].Threshold.Cmp(decimal.NewFromInt(2)) != 0 {
		t.Fatalf("expected second up threshold 2, got %s", entry.AlertsUp[1].Threshold)
	}
	if entry.AlertsUp[0].Direction != Up || entry.AlertsDown[0].Direction != Down {
		t.Fatal("ladder directions not set")
	}
}

func TestFromConfigRejectsBadThreshold(t *testing.T) {
	_, err := FromConfig([]config.TokenConfig{
		{Address: daiAddress, Name: "DAI", AlertsUp: []string{"not-a-number"}},
	})
	if err == nil {
		t.Fatal("expected error for non-numeric threshold")
	}
}

func TestFromConfigRejectsBadAddress(t *testing.T) {
	_, err := FromConfig([]config.TokenConfig{
		{Address: "0xnope", Name: "DAI"},
	})
	if err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestFromConfigRejectsDuplicateAddress(t *testing.T) {
	_, err := FromConfig([]config.TokenConfig{
		{Address: daiAddress, Name: "DAI"},
		{Address: daiAddress, Name: "DAI again"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate address")
	}
}

func TestNextPendingRespectsOrder(t *testing.T) {
	entry := &Entry{
		AlertsUp: []*Rule{
			{Direction: Up, Threshold: decimal.NewFromInt(100)},
			{Direction: Up, Threshold: decimal.NewFromInt(200)},
		},
	}

	first := entry.NextPending(Up)
	if first == nil || first.Threshold.Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("expected first pending rule to be 100, got %+v", first)
	}

	first.Completed = true
	second := entry.NextPending(Up)
	if second == nil || second.Threshold.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected next pending rule to be 200, got %+v", second)
	}

	second.Completed = true
	if entry.NextPending(Up) != nil {
		t.Fatal("exhausted ladder should have no pending rule")
	}
	if entry.NextPending(Down) != nil {
		t.Fatal("empty down ladder should have no pending rule")
	}
}
