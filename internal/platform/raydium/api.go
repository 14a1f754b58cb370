package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// APIClient is the REST client for the Raydium v3 API, used to discover
// AMM pools for a mint without scanning program accounts.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a Raydium API client.
//
// baseURL is the API root, e.g. "https://api-v3.raydium.io".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIPool is the subset of the v3 pool-info payload the scanner uses.
type APIPool struct {
	ID        string  `json:"id"`
	ProgramID string  `json:"programId"`
	TVL       float64 `json:"tvl"`
	MintA     struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	} `json:"mintA"`
	MintB struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	} `json:"mintB"`
	FeeRate float64 `json:"feeRate"`
}

type poolInfoResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Count int       `json:"count"`
		Data  []APIPool `json:"data"`
	} `json:"data"`
}

// ToDomainPool converts an API pool into a domain pool.
func (p *APIPool) ToDomainPool() (domain.Pool, error) {
	addr, err := solana.PublicKeyFromBase58(p.ID)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("pool id: %w", err)
	}
	mintA, err := solana.PublicKeyFromBase58(p.MintA.Address)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("mint a: %w", err)
	}
	mintB, err := solana.PublicKeyFromBase58(p.MintB.Address)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("mint b: %w", err)
	}
	now := time.Now().UTC()
	return domain.Pool{
		Address:   addr,
		Venue:     domain.VenueRaydium,
		BaseMint:  mintA,
		QuoteMint: mintB,
		FeeRate:   p.FeeRate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PoolsByMintPair returns standard AMM pools for the mint pair, sorted by
// descending liquidity. Pools from other program families are filtered by
// the caller via the program ID.
func (a *APIClient) PoolsByMintPair(ctx context.Context, mint1, mint2 solana.PublicKey, pageSize int) ([]APIPool, error) {
	params := url.Values{}
	params.Set("mint1", mint1.String())
	params.Set("mint2", mint2.String())
	params.Set("poolType", "standard")
	params.Set("poolSortField", "liquidity")
	params.Set("sortType", "desc")
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	params.Set("page", "1")

	body, err := a.doGet(ctx, "/pools/info/mint?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("raydium/api: pools by mint: %w", err)
	}

	var resp poolInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("raydium/api: decode pools: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("raydium/api: pool query unsuccessful")
	}
	return resp.Data.Data, nil
}

// doGet sends an unauthenticated GET request to the Raydium API.
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

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
