package reserves

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

func acct(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[0] = b
	return pk
}

func TestTableApply(t *testing.T) {
	table := NewTable()
	a := acct(1)

	if !table.Apply(domain.AccountUpdate{Account: a, Amount: 100, Slot: 10, ReceivedAt: time.Now()}) {
		t.Fatal("first apply rejected")
	}
	snap, ok := table.Latest(a)
	if !ok || snap.Amount != 100 || snap.Slot != 10 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestTableApplyDropsOldSlots(t *testing.T) {
	table := NewTable()
	a := acct(1)

	table.Apply(domain.AccountUpdate{Account: a, Amount: 100, Slot: 10})
	if table.Apply(domain.AccountUpdate{Account: a, Amount: 50, Slot: 9}) {
		t.Error("update from an older slot should be dropped")
	}
	snap, _ := table.Latest(a)
	if snap.Amount != 100 {
		t.Errorf("stale update overwrote snapshot: %+v", snap)
	}

	// Same slot is accepted; notifications within one slot arrive in order.
	if !table.Apply(domain.AccountUpdate{Account: a, Amount: 75, Slot: 10}) {
		t.Error("same-slot update should be accepted")
	}
}

func TestTableSeedDoesNotRegress(t *testing.T) {
	table := NewTable()
	a := acct(1)

	table.Apply(domain.AccountUpdate{Account: a, Amount: 100, Slot: 20})
	table.Seed(domain.ReserveSnapshot{Account: a, Amount: 5, Slot: 15})

	snap, _ := table.Latest(a)
	if snap.Amount != 100 {
		t.Errorf("seed regressed a newer stream snapshot: %+v", snap)
	}
}

func TestTableLen(t *testing.T) {
	table := NewTable()
	table.Apply(domain.AccountUpdate{Account: acct(1), Slot: 1})
	table.Apply(domain.AccountUpdate{Account: acct(2), Slot: 1})
	table.Apply(domain.AccountUpdate{Account: acct(1), Slot: 2})

	if table.Len() != 2 {
		t.Errorf("expected 2 tracked accounts, got %d", table.Len())
	}
}
