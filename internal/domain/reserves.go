package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// ReserveSnapshot is the last observed balance of one pool token account.
type ReserveSnapshot struct {
	Account    solana.PublicKey
	Mint       solana.PublicKey
	Amount     uint64  // raw lamports
	UIAmount   float64 // scaled by mint decimals
	Decimals   uint8
	Slot       uint64
	ObservedAt time.Time
}

// Fresh reports whether the snapshot is younger than the given budget at
// the reference time.
func (s ReserveSnapshot) Fresh(now time.Time, budget time.Duration) bool {
	return now.Sub(s.ObservedAt) <= budget
}

// AccountUpdate is one parsed account-change notification from the
// websocket stream, before it is folded into the reserve map.
type AccountUpdate struct {
	Account    solana.PublicKey
	Mint       solana.PublicKey
	Owner      solana.PublicKey
	Amount     uint64
	UIAmount   float64
	Decimals   uint8
	Slot       uint64
	ReceivedAt time.Time
}
