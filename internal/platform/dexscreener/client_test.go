package dexscreener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

func TestTokenPairs(t *testing.T) {
	mint := solana.TokenProgramID

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/solana/"+mint.String()) {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"chainId": "solana", "dexId": "raydium", "liquidity": {"usd": 120000}},
			{"chainId": "solana", "dexId": "meteora", "liquidity": {"usd": 30000.5}}
		]`))
	}))
	defer srv.Close()

	pairs, err := NewClient(srv.URL).TokenPairs(context.Background(), mint)
	if err != nil {
		t.Fatalf("TokenPairs failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if got := TotalLiquidityUSD(pairs); got != 150000.5 {
		t.Errorf("total liquidity = %v, want 150000.5", got)
	}
}

func TestTokenPairsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).TokenPairs(context.Background(), solana.TokenProgramID)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestTotalLiquidityUSDEmpty(t *testing.T) {
	if got := TotalLiquidityUSD(nil); got != 0 {
		t.Errorf("empty total = %v, want 0", got)
	}
}
