package domain

import (
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[0] = b
	return pk
}

func TestRouteKeyOrderIndependent(t *testing.T) {
	a, b := key(1), key(2)
	if RouteKey(a, b) != RouteKey(b, a) {
		t.Errorf("RouteKey not symmetric: %s vs %s", RouteKey(a, b), RouteKey(b, a))
	}
	if !strings.Contains(RouteKey(a, b), ":") {
		t.Errorf("RouteKey missing separator: %s", RouteKey(a, b))
	}
}

func TestNewRoute(t *testing.T) {
	mint := key(9)
	raydium := Pool{Address: key(1), Venue: VenueRaydium, BaseMint: mint, QuoteMint: WSOL}
	meteora := Pool{Address: key(2), Venue: VenueMeteora, BaseMint: mint, QuoteMint: WSOL}

	route, err := NewRoute(raydium, meteora)
	if err != nil {
		t.Fatalf("NewRoute failed: %v", err)
	}
	if route.ID != RouteKey(raydium.Address, meteora.Address) {
		t.Errorf("unexpected route ID: %s", route.ID)
	}
	if !route.Mint.Equals(mint) {
		t.Errorf("unexpected mint: %s", route.Mint)
	}
	if route.Status != RouteStatusEnabled {
		t.Errorf("unexpected status: %s", route.Status)
	}
}

func TestNewRouteFlippedSides(t *testing.T) {
	// Same mint pair stored in opposite order still forms a route.
	mint := key(9)
	raydium := Pool{Address: key(1), Venue: VenueRaydium, BaseMint: WSOL, QuoteMint: mint}
	meteora := Pool{Address: key(2), Venue: VenueMeteora, BaseMint: mint, QuoteMint: WSOL}

	route, err := NewRoute(raydium, meteora)
	if err != nil {
		t.Fatalf("NewRoute failed: %v", err)
	}
	if !route.Mint.Equals(mint) {
		t.Errorf("unexpected mint: %s", route.Mint)
	}
}

func TestNewRouteRejects(t *testing.T) {
	mint := key(9)
	tests := []struct {
		name     string
		raydium  Pool
		meteora  Pool
	}{
		{
			name:    "wrong raydium venue",
			raydium: Pool{Address: key(1), Venue: VenueMeteora, BaseMint: mint, QuoteMint: WSOL},
			meteora: Pool{Address: key(2), Venue: VenueMeteora, BaseMint: mint, QuoteMint: WSOL},
		},
		{
			name:    "wrong meteora venue",
			raydium: Pool{Address: key(1), Venue: VenueRaydium, BaseMint: mint, QuoteMint: WSOL},
			meteora: Pool{Address: key(2), Venue: VenueRaydium, BaseMint: mint, QuoteMint: WSOL},
		},
		{
			name:    "same pool",
			raydium: Pool{Address: key(1), Venue: VenueRaydium, BaseMint: mint, QuoteMint: WSOL},
			meteora: Pool{Address: key(1), Venue: VenueMeteora, BaseMint: mint, QuoteMint: WSOL},
		},
		{
			name:    "different mint pair",
			raydium: Pool{Address: key(1), Venue: VenueRaydium, BaseMint: mint, QuoteMint: WSOL},
			meteora: Pool{Address: key(2), Venue: VenueMeteora, BaseMint: key(8), QuoteMint: WSOL},
		},
		{
			name:    "wsol on both sides",
			raydium: Pool{Address: key(1), Venue: VenueRaydium, BaseMint: WSOL, QuoteMint: WSOL},
			meteora: Pool{Address: key(2), Venue: VenueMeteora, BaseMint: WSOL, QuoteMint: WSOL},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRoute(tt.raydium, tt.meteora); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRouteStatusTransitions(t *testing.T) {
	if RouteStatusSkip.CanTransition(RouteStatusEnabled) {
		t.Error("skip must be terminal")
	}
	if !RouteStatusSkip.CanTransition(RouteStatusSkip) {
		t.Error("skip to skip should be allowed")
	}
	if !RouteStatusEnabled.CanTransition(RouteStatusSkip) {
		t.Error("enabled to skip should be allowed")
	}
	if !RouteStatusDisabled.CanTransition(RouteStatusEnabled) {
		t.Error("disabled to enabled should be allowed")
	}
}
