package meteora

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/quantfold/dexarb/internal/domain"
)

// APIClient is the REST client for the Meteora DLMM API, which provides
// pair discovery and off-chain metadata (liquidity, volume) that is not
// available from account state.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new DLMM API client.
//
// baseURL is the API root, e.g. "https://dlmm-api.meteora.ag".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIPair is the DLMM API representation of a liquidity pair.
type APIPair struct {
	Address        string `json:"address"`
	Name           string `json:"name"`
	MintX          string `json:"mint_x"`
	MintY          string `json:"mint_y"`
	BinStep        uint16 `json:"bin_step"`
	BaseFeePct     string `json:"base_fee_percentage"`
	MaxFeePct      string `json:"max_fee_percentage"`
	Liquidity      string `json:"liquidity"`
	TradeVolume24h float64 `json:"trade_volume_24h"`
	CurrentPrice   float64 `json:"current_price"`
	Hide           bool    `json:"hide"`
}

// LiquidityUSD parses the pair's reported TVL. The API encodes it as an
// arbitrary-precision decimal string. Returns 0 when the field is omitted
// or mangled.
func (p *APIPair) LiquidityUSD() float64 {
	v, err := decimal.NewFromString(p.Liquidity)
	if err != nil {
		return 0
	}
	f, _ := v.Float64()
	return f
}

// BaseFeeRate parses the pair's base fee percentage into a fraction.
func (p *APIPair) BaseFeeRate() float64 {
	v, err := decimal.NewFromString(p.BaseFeePct)
	if err != nil {
		return 0
	}
	f, _ := v.Shift(-2).Float64()
	return f
}

// ToDomainPool converts the API pair into a domain pool.
func (p *APIPair) ToDomainPool() (domain.Pool, error) {
	addr, err := solana.PublicKeyFromBase58(p.Address)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("pair address: %w", err)
	}
	mintX, err := solana.PublicKeyFromBase58(p.MintX)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("mint x: %w", err)
	}
	mintY, err := solana.PublicKeyFromBase58(p.MintY)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("mint y: %w", err)
	}
	now := time.Now().UTC()
	return domain.Pool{
		Address:   addr,
		Venue:     domain.VenueMeteora,
		BaseMint:  mintX,
		QuoteMint: mintY,
		BinStep:   p.BinStep,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AllPairs returns every pair the DLMM API knows about. The endpoint is
// unpaginated and returns the full listing in one response.
func (a *APIClient) AllPairs(ctx context.Context) ([]APIPair, error) {
	body, err := a.doGet(ctx, "/pair/all")
	if err != nil {
		return nil, fmt.Errorf("meteora/api: all pairs: %w", err)
	}

	var pairs []APIPair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("meteora/api: decode pairs: %w", err)
	}

	return pairs, nil
}

// GetPair returns a single pair by its on-chain address.
func (a *APIClient) GetPair(ctx context.Context, address string) (APIPair, error) {
	body, err := a.doGet(ctx, "/pair/"+address)
	if err != nil {
		return APIPair{}, fmt.Errorf("meteora/api: get pair %s: %w", address, err)
	}

	var pair APIPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return APIPair{}, fmt.Errorf("meteora/api: decode pair: %w", err)
	}

	return pair, nil
}

// doGet sends an unauthenticated GET request to the DLMM API.
func (a *APIClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
