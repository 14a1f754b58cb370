// Package graph builds and maintains the cross-venue route set: it pairs
// Raydium pools with Meteora pools over the same mint, applies the fee
// floor, and materializes an address lookup table per viable route.
package graph

import (
	"github.com/quantfold/dexarb/internal/domain"
)

// Candidates pairs every Raydium pool in pools with every Meteora pool
// sharing its mint pair and returns the resulting routes. Invalid pairings
// are dropped, duplicate pool pairs are deduplicated by route key, and at
// most one route is kept per Raydium pool (first Meteora match wins).
func Candidates(pools []domain.Pool) []domain.Route {
	var raydium, meteora []domain.Pool
	for _, p := range pools {
		switch p.Venue {
		case domain.VenueRaydium:
			raydium = append(raydium, p)
		case domain.VenueMeteora:
			meteora = append(meteora, p)
		}
	}

	seen := make(map[string]struct{})
	taken := make(map[string]struct{}) // raydium pools already routed
	var routes []domain.Route

	for _, r := range raydium {
		if _, ok := taken[r.Address.String()]; ok {
			continue
		}
		for _, m := range meteora {
			route, err := domain.NewRoute(r, m)
			if err != nil {
				continue
			}
			if _, ok := seen[route.ID]; ok {
				continue
			}
			seen[route.ID] = struct{}{}
			taken[r.Address.String()] = struct{}{}
			routes = append(routes, route)
			break
		}
	}

	return routes
}
