package meteora

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

var (
	testPairAddr = solana.TokenProgramID.String()
	testMintX    = solana.SystemProgramID.String()
	testMintY    = domain.WSOL.String()
)

var pairJSON = `{
	"address": "` + testPairAddr + `",
	"name": "USDC-SOL",
	"mint_x": "` + testMintX + `",
	"mint_y": "` + testMintY + `",
	"bin_step": 10,
	"base_fee_percentage": "0.1",
	"max_fee_percentage": "10",
	"liquidity": "123456.789",
	"trade_volume_24h": 98765.4,
	"current_price": 0.0052,
	"hide": false
}`

func TestAllPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pair/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("[" + pairJSON + "]"))
	}))
	defer srv.Close()

	pairs, err := NewAPIClient(srv.URL).AllPairs(context.Background())
	if err != nil {
		t.Fatalf("AllPairs failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.Name != "USDC-SOL" || p.BinStep != 10 || p.Hide {
		t.Errorf("unexpected pair: %+v", p)
	}
	if got := p.LiquidityUSD(); math.Abs(got-123456.789) > 1e-9 {
		t.Errorf("liquidity = %v, want 123456.789", got)
	}
	if got := p.BaseFeeRate(); math.Abs(got-0.001) > 1e-15 {
		t.Errorf("base fee = %v, want 0.001", got)
	}
}

func TestGetPairNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL).GetPair(context.Background(), testPairAddr)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAPIRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL).AllPairs(context.Background())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAPIPairToDomainPool(t *testing.T) {
	p := APIPair{Address: testPairAddr, MintX: testMintX, MintY: testMintY, BinStep: 25}

	pool, err := p.ToDomainPool()
	if err != nil {
		t.Fatalf("ToDomainPool failed: %v", err)
	}
	if pool.Venue != domain.VenueMeteora {
		t.Errorf("venue = %s", pool.Venue)
	}
	if pool.BinStep != 25 {
		t.Errorf("bin step = %d", pool.BinStep)
	}
	if !pool.QuoteMint.Equals(domain.WSOL) {
		t.Errorf("quote mint = %s", pool.QuoteMint)
	}

	bad := APIPair{Address: "garbage", MintX: testMintX, MintY: testMintY}
	if _, err := bad.ToDomainPool(); err == nil {
		t.Error("invalid address should be rejected")
	}
}

func TestLiquidityUSDMalformed(t *testing.T) {
	p := APIPair{Liquidity: "not-a-number"}
	if got := p.LiquidityUSD(); got != 0 {
		t.Errorf("malformed liquidity = %v, want 0", got)
	}
}
