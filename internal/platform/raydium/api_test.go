package raydium

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

func poolInfoJSON(programID string) string {
	return fmt.Sprintf(`{
		"success": true,
		"data": {
			"count": 1,
			"data": [{
				"id": %q,
				"programId": %q,
				"tvl": 250000.5,
				"mintA": {"address": %q, "symbol": "TKN", "decimals": 6},
				"mintB": {"address": %q, "symbol": "WSOL", "decimals": 9},
				"feeRate": 0.0025
			}]
		}
	}`, solana.TokenProgramID, programID, solana.SystemProgramID, domain.WSOL)
}

func TestPoolsByMintPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("poolType") != "standard" || q.Get("poolSortField") != "liquidity" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("mint2") != domain.WSOL.String() {
			t.Errorf("mint2 = %s", q.Get("mint2"))
		}
		w.Write([]byte(poolInfoJSON(ProgramID.String())))
	}))
	defer srv.Close()

	pools, err := NewAPIClient(srv.URL).PoolsByMintPair(context.Background(), solana.SystemProgramID, domain.WSOL, 5)
	if err != nil {
		t.Fatalf("PoolsByMintPair failed: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(pools))
	}
	p := pools[0]
	if p.ProgramID != ProgramID.String() || p.FeeRate != 0.0025 {
		t.Errorf("unexpected pool: %+v", p)
	}

	pool, err := p.ToDomainPool()
	if err != nil {
		t.Fatalf("ToDomainPool failed: %v", err)
	}
	if pool.Venue != domain.VenueRaydium || pool.FeeRate != 0.0025 {
		t.Errorf("unexpected domain pool: %+v", pool)
	}
	if !pool.QuoteMint.Equals(domain.WSOL) {
		t.Errorf("quote mint = %s", pool.QuoteMint)
	}
}

func TestPoolsByMintPairUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "data": {"count": 0, "data": []}}`))
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL).PoolsByMintPair(context.Background(), solana.SystemProgramID, domain.WSOL, 5)
	if err == nil {
		t.Error("unsuccessful response should be an error")
	}
}

func TestPoolsByMintPairRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL).PoolsByMintPair(context.Background(), solana.SystemProgramID, domain.WSOL, 5)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
