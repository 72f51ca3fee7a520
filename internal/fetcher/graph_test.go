package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestGraph(url string) *Graph {
	return NewGraph(GraphOptions{
		Endpoint:  url,
		Timeout:   time.Second,
		UserAgent: "test",
	}, zerolog.Nop())
}

func TestFetchReferencePriceSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["query"] == "" {
			t.Fatal("request should carry a query")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"bundles": []map[string]string{{"ethPrice": "2000.5"}},
			},
		})
	}))
	defer srv.Close()

	price, err := newTestGraph(srv.URL).FetchReferencePrice(context.Background())
	if err != nil {
		t.Fatalf("FetchReferencePrice failed: %v", err)
	}
	if price.Cmp(decimal.RequireFromString("2000.5")) != 0 {
		t.Fatalf("expected 2000.5, got %s", price)
	}
}

func TestFetchReferencePriceEmptyBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"bundles": []map[string]string{}},
		})
	}))
	defer srv.Close()

	if _, err := newTestGraph(srv.URL).FetchReferencePrice(context.Background()); err == nil {
		t.Fatal("missing bundle should return an error")
	}
}

func TestFetchReferencePriceGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "indexing error"}},
		})
	}))
	defer srv.Close()

	if _, err := newTestGraph(srv.URL).FetchReferencePrice(context.Background()); err == nil {
		t.Fatal("graphql errors should surface")
	}
}

func TestFetchReferencePriceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "bad query"}},
		})
	}))
	defer srv.Close()

	if _, err := newTestGraph(srv.URL).FetchReferencePrice(context.Background()); err == nil {
		t.Fatal("HTTP 400 should return an error")
	}
}

func TestFetchTokenRatesSuccess(t *testing.T) {
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				TokenAddresses []string `json:"tokenAddresses"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Variables.TokenAddresses) != 1 || req.Variables.TokenAddresses[0] != "0x6b175474e89094c44da98b954eedeac495271d0f" {
			t.Fatalf("addresses should be lowercased, got %v", req.Variables.TokenAddresses)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"tokens": []map[string]string{
					{"id": "0x6b175474e89094c44da98b954eedeac495271d0f", "name": "Dai Stablecoin", "derivedETH": "0.0005"},
					{"id": "0xbad", "name": "junk", "derivedETH": "1"},
				},
			},
		})
	}))
	defer srv.Close()

	rates, err := newTestGraph(srv.URL).FetchTokenRates(context.Background(), []common.Address{dai})
	if err != nil {
		t.Fatalf("FetchTokenRates failed: %v", err)
	}
	if len(rates) != 1 {
		t.Fatalf("malformed ids should be skipped, got %d entries", len(rates))
	}
	rate, ok := rates[dai]
	if !ok {
		t.Fatal("DAI rate missing")
	}
	if rate.Name != "Dai Stablecoin" || rate.Rate.Cmp(decimal.RequireFromString("0.0005")) != 0 {
		t.Fatalf("unexpected rate: %+v", rate)
	}
}

func TestFetchTokenRatesEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be made for an empty batch")
	}))
	defer srv.Close()

	rates, err := newTestGraph(srv.URL).FetchTokenRates(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch should succeed: %v", err)
	}
	if len(rates) != 0 {
		t.Fatalf("expected empty result, got %d", len(rates))
	}
}

func TestGraphMissingEndpoint(t *testing.T) {
	g := NewGraph(GraphOptions{}, zerolog.Nop())
	if _, err := g.FetchReferencePrice(context.Background()); err == nil {
		t.Fatal("missing endpoint should return an error")
	}
}
