// Package reserves keeps pool vault balances synchronized over the RPC
// websocket account stream and invokes the engine on every fold.
package reserves

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// Table is the in-memory latest-snapshot map the evaluator reads. Updates
// arriving out of slot order are dropped.
type Table struct {
	mu    sync.RWMutex
	snaps map[solana.PublicKey]domain.ReserveSnapshot
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{snaps: make(map[solana.PublicKey]domain.ReserveSnapshot)}
}

// Apply folds an account update into the table. It returns false when the
// update is older than the held snapshot and was discarded.
func (t *Table) Apply(upd domain.AccountUpdate) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if held, ok := t.snaps[upd.Account]; ok && upd.Slot < held.Slot {
		return false
	}
	t.snaps[upd.Account] = domain.ReserveSnapshot{
		Account:    upd.Account,
		Mint:       upd.Mint,
		Amount:     upd.Amount,
		UIAmount:   upd.UIAmount,
		Decimals:   upd.Decimals,
		Slot:       upd.Slot,
		ObservedAt: upd.ReceivedAt,
	}
	return true
}

// Latest returns the current snapshot for an account.
func (t *Table) Latest(account solana.PublicKey) (domain.ReserveSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.snaps[account]
	return s, ok
}

// Seed inserts a snapshot fetched over RPC, used to warm the table before
// the stream delivers its first update for the account.
func (t *Table) Seed(snap domain.ReserveSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if held, ok := t.snaps[snap.Account]; ok && snap.Slot < held.Slot {
		return
	}
	t.snaps[snap.Account] = snap
}

// Len returns the number of tracked accounts.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snaps)
}
