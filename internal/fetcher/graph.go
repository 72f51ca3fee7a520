package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	referencePriceQuery = `query bundles { bundles(where: {id: "1"}) { ethPrice } }`
	tokenRatesQuery     = `query tokens($tokenAddresses: [Bytes]!) { tokens(where: {id_in: $tokenAddresses}) { id name derivedETH } }`
)

// GraphOptions parameterise the subgraph client.
type GraphOptions struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// Graph fetches reference prices and token rates from a Uniswap-v2-style
// subgraph over GraphQL.
type Graph struct {
	opts   GraphOptions
	logger zerolog.Logger
	client *http.Client
}

// NewGraph constructs a subgraph fetcher.
func NewGraph(opts GraphOptions, logger zerolog.Logger) *Graph {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Graph{
		opts:   opts,
		logger: logger.With().Str("component", "graph_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchReferencePrice retrieves the USD price of the reference unit from the
// global bundle.
func (g *Graph) FetchReferencePrice(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Bundles []struct {
			EthPrice string `json:"ethPrice"`
		} `json:"bundles"`
	}

	if err := g.query(ctx, referencePriceQuery, nil, &result); err != nil {
		return decimal.Decimal{}, err
	}

	if len(result.Bundles) == 0 {
		return decimal.Decimal{}, errors.New("reference bundle not found")
	}

	price, err := decimal.NewFromString(result.Bundles[0].EthPrice)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse reference price: %w", err)
	}
	if price.IsZero() {
		return decimal.Decimal{}, errors.New("reference price returned zero")
	}

	return price, nil
}

// FetchTokenRates retrieves derived rates for the given token addresses.
// Tokens the subgraph does not know are simply absent from the result.
func (g *Graph) FetchTokenRates(ctx context.Context, addrs []common.Address) (map[common.Address]TokenRate, error) {
	if len(addrs) == 0 {
		return map[common.Address]TokenRate{}, nil
	}

	// The subgraph indexes ids as lowercase hex.
	ids := make([]string, len(addrs))
	for i, addr := range addrs {
		ids[i] = strings.ToLower(addr.Hex())
	}

	var result struct {
		Tokens []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			DerivedETH string `json:"derivedETH"`
		} `json:"tokens"`
	}

	variables := map[string]any{"tokenAddresses": ids}
	if err := g.query(ctx, tokenRatesQuery, variables, &result); err != nil {
		return nil, err
	}

	rates := make(map[common.Address]TokenRate, len(result.Tokens))
	for _, token := range result.Tokens {
		if !common.IsHexAddress(token.ID) {
			g.logger.Warn().Str("id", token.ID).Msg("subgraph returned malformed token id")
			continue
		}
		rate, err := decimal.NewFromString(token.DerivedETH)
		if err != nil {
			g.logger.Warn().Str("id", token.ID).Str("derived_eth", token.DerivedETH).Msg("subgraph returned malformed rate")
			continue
		}
		rates[common.HexToAddress(token.ID)] = TokenRate{Name: token.Name, Rate: rate}
	}

	return rates, nil
}

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphError struct {
	Message string `json:"message"`
}

func (g *Graph) query(ctx context.Context, query string, variables map[string]any, out any) error {
	if g.opts.Endpoint == "" {
		return errors.New("graph endpoint not configured")
	}

	body, err := json.Marshal(graphRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(g.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "tokenwatcher/1.0")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphError    `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graph query error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return errors.New("graph response missing data")
	}

	return json.Unmarshal(envelope.Data, out)
}

func parseHTTPError(status int, payload []byte) error {
	var envelope struct {
		Errors []graphError `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Errors) > 0 {
		return fmt.Errorf("graph api error (%d): %s", status, envelope.Errors[0].Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("graph api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("graph api error (%d)", status)
}

var _ ReferencePriceFetcher = (*Graph)(nil)
var _ TokenRateFetcher = (*Graph)(nil)
