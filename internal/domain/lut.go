package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// LookupTable records an on-chain address lookup table materialized for a
// route. Addresses preserves the first-seen insertion order used when the
// table was extended, which is the order v0 message compaction indexes into.
type LookupTable struct {
	Address   solana.PublicKey
	RouteID   string
	Addresses []solana.PublicKey
	CreatedAt time.Time
}

// Contains reports whether addr is already present in the table.
func (l LookupTable) Contains(addr solana.PublicKey) bool {
	for _, a := range l.Addresses {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}
