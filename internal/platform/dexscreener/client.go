// Package dexscreener is a read-only client for the Dexscreener aggregator
// API, used to gauge a token's aggregate liquidity across venues before it
// is admitted as tradable.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// Client queries the Dexscreener public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Dexscreener client.
//
// baseURL is the API root, e.g. "https://api.dexscreener.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Pair is one venue listing for a token.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"quoteToken"`
	PriceNative string `json:"priceNative"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

// TokenPairs returns every listed pair for the given Solana mint.
func (c *Client) TokenPairs(ctx context.Context, mint solana.PublicKey) ([]Pair, error) {
	path := "/token-pairs/v1/solana/" + mint.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener: unexpected status %d", resp.StatusCode)
	}

	var pairs []Pair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("dexscreener: decode pairs: %w", err)
	}
	return pairs, nil
}

// TotalLiquidityUSD sums the USD liquidity across all of a token's pairs.
func TotalLiquidityUSD(pairs []Pair) float64 {
	var total float64
	for _, p := range pairs {
		total += p.Liquidity.USD
	}
	return total
}
