package liquidity

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
)

func pk(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	return k
}

func testState() *RouteState {
	mint := pk(1)
	return &RouteState{
		Route: domain.Route{ID: "r", Mint: mint, Status: domain.RouteStatusEnabled},
		Token: domain.Token{Mint: mint, Decimals: 6},
		Raydium: raydium.PoolKeys{
			BaseVault:  pk(2),
			QuoteVault: pk(3),
		},
		Meteora: meteora.Pair{
			TokenXMint: mint,
			TokenYMint: domain.WSOL,
			ReserveX:   pk(4),
			ReserveY:   pk(5),
		},
	}
}

func TestRouteStateDecimals(t *testing.T) {
	s := testState()
	if s.XDecimals() != 6 {
		t.Errorf("x decimals = %d, want 6", s.XDecimals())
	}
	if s.YDecimals() != 9 {
		t.Errorf("y decimals = %d, want 9 for WSOL", s.YDecimals())
	}

	// Flipped pair orientation.
	s.Meteora.TokenXMint, s.Meteora.TokenYMint = domain.WSOL, s.Token.Mint
	if s.XDecimals() != 9 {
		t.Errorf("flipped x decimals = %d, want 9", s.XDecimals())
	}
	if s.YDecimals() != 6 {
		t.Errorf("flipped y decimals = %d, want 6", s.YDecimals())
	}
}

func TestRouteStateWatchedAccounts(t *testing.T) {
	s := testState()
	accounts := s.WatchedAccounts()
	if len(accounts) != 4 {
		t.Fatalf("expected 4 watched accounts, got %d", len(accounts))
	}
	want := []solana.PublicKey{pk(2), pk(3), pk(4), pk(5)}
	for i, a := range accounts {
		if !a.Equals(want[i]) {
			t.Errorf("account[%d] = %s, want %s", i, a, want[i])
		}
	}
}

func TestRouteStateExecutable(t *testing.T) {
	s := testState()
	if s.Executable() {
		t.Error("route without a lookup table must not be executable")
	}

	s.Lut = domain.LookupTable{Address: pk(9)}
	if !s.Executable() {
		t.Error("enabled route with a lookup table should be executable")
	}

	s.Route.Status = domain.RouteStatusDisabled
	if s.Executable() {
		t.Error("disabled route must not be executable")
	}
}
