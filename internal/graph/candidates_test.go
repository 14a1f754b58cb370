package graph

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

func pk(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	return k
}

func raydiumPool(addr byte, mint solana.PublicKey) domain.Pool {
	return domain.Pool{Address: pk(addr), Venue: domain.VenueRaydium, BaseMint: mint, QuoteMint: domain.WSOL}
}

func meteoraPool(addr byte, mint solana.PublicKey) domain.Pool {
	return domain.Pool{Address: pk(addr), Venue: domain.VenueMeteora, BaseMint: mint, QuoteMint: domain.WSOL}
}

func TestCandidatesPairsByMint(t *testing.T) {
	mintA, mintB := pk(100), pk(101)
	pools := []domain.Pool{
		raydiumPool(1, mintA),
		raydiumPool(2, mintB),
		meteoraPool(3, mintA),
		meteoraPool(4, mintB),
	}

	routes := Candidates(pools)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	for _, r := range routes {
		if !r.Mint.Equals(mintA) && !r.Mint.Equals(mintB) {
			t.Errorf("route %s has unexpected mint %s", r.ID, r.Mint)
		}
		if r.Status != domain.RouteStatusEnabled {
			t.Errorf("route %s not enabled", r.ID)
		}
	}
}

func TestCandidatesOneRoutePerRaydiumPool(t *testing.T) {
	mint := pk(100)
	pools := []domain.Pool{
		raydiumPool(1, mint),
		meteoraPool(2, mint),
		meteoraPool(3, mint), // second DLMM pool over the same mint
	}

	routes := Candidates(pools)
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	if !routes[0].MeteoraPool.Equals(pk(2)) {
		t.Errorf("first meteora match should win, got %s", routes[0].MeteoraPool)
	}
}

func TestCandidatesIgnoresUnmatchedMints(t *testing.T) {
	pools := []domain.Pool{
		raydiumPool(1, pk(100)),
		meteoraPool(2, pk(101)),
	}
	if routes := Candidates(pools); len(routes) != 0 {
		t.Errorf("expected no routes, got %d", len(routes))
	}
}

func TestCandidatesEmptyInput(t *testing.T) {
	if routes := Candidates(nil); len(routes) != 0 {
		t.Errorf("expected no routes from empty input, got %d", len(routes))
	}
}
