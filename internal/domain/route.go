package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// RouteStatus is the lifecycle state of a route. Skip is terminal: a
// skipped route is never re-enabled by the engine (only by reset tooling).
type RouteStatus string

const (
	RouteStatusEnabled  RouteStatus = "enabled"
	RouteStatusDisabled RouteStatus = "disabled"
	RouteStatusSkip     RouteStatus = "skip"
)

// CanTransition reports whether a route may move from to the given status.
func (s RouteStatus) CanTransition(to RouteStatus) bool {
	if s == RouteStatusSkip {
		return to == RouteStatusSkip
	}
	return true
}

// Route pairs one Raydium pool with one Meteora pool over the same mint
// pair. Exactly one route may exist per Raydium pool.
type Route struct {
	ID          string
	RaydiumPool solana.PublicKey
	MeteoraPool solana.PublicKey
	// Mint is the non-WSOL side of the pair; WSOL is always the other leg.
	Mint      solana.PublicKey
	Status    RouteStatus
	Lut       *solana.PublicKey
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RouteKey builds the canonical identifier for an unordered pool pair.
// The same two pools always produce the same key regardless of argument
// order, which is what deduplicates candidate routes.
func RouteKey(a, b solana.PublicKey) string {
	sa, sb := a.String(), b.String()
	if strings.Compare(sa, sb) > 0 {
		sa, sb = sb, sa
	}
	return sa + ":" + sb
}

// NewRoute validates and assembles a route from a cross-venue pool pair.
func NewRoute(raydium, meteora Pool) (Route, error) {
	if raydium.Venue != VenueRaydium {
		return Route{}, fmt.Errorf("domain: route leg %s has venue %q, want %q", raydium.Address, raydium.Venue, VenueRaydium)
	}
	if meteora.Venue != VenueMeteora {
		return Route{}, fmt.Errorf("domain: route leg %s has venue %q, want %q", meteora.Address, meteora.Venue, VenueMeteora)
	}
	if raydium.Address.Equals(meteora.Address) {
		return Route{}, fmt.Errorf("domain: route cannot pair pool %s with itself", raydium.Address)
	}
	if !SharesPair(raydium, meteora) {
		return Route{}, fmt.Errorf("domain: pools %s and %s do not share a mint pair", raydium.Address, meteora.Address)
	}
	mint := raydium.BaseMint
	if mint.Equals(WSOL) {
		mint = raydium.QuoteMint
	}
	if mint.Equals(WSOL) {
		return Route{}, fmt.Errorf("domain: pool %s has WSOL on both sides", raydium.Address)
	}
	return Route{
		ID:          RouteKey(raydium.Address, meteora.Address),
		RaydiumPool: raydium.Address,
		MeteoraPool: meteora.Address,
		Mint:        mint,
		Status:      RouteStatusEnabled,
	}, nil
}
