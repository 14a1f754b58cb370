package reserves

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
)

type countingHandler struct {
	calls []solana.PublicKey
}

func (h *countingHandler) HandleAccount(_ context.Context, account solana.PublicKey) {
	h.calls = append(h.calls, account)
}

type nopBus struct {
	relayed int
}

func (b *nopBus) Publish(context.Context, string, []byte) error { return nil }
func (b *nopBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}
func (b *nopBus) PublishReload(context.Context, bool) error { return nil }
func (b *nopBus) WatchReload(context.Context) (<-chan bool, error) {
	return nil, nil
}
func (b *nopBus) PublishAccountUpdate(context.Context, domain.AccountUpdate) error {
	b.relayed++
	return nil
}

func debounceSync(window time.Duration) (*Synchronizer, *countingHandler, *nopBus) {
	h := &countingHandler{}
	b := &nopBus{}
	cfg := config.Defaults().Reserves
	cfg.Debounce.Duration = window
	s := &Synchronizer{
		table:    NewTable(),
		handler:  h,
		bus:      b,
		cfg:      cfg,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		lastEval: make(map[solana.PublicKey]time.Time),
	}
	return s, h, b
}

func upd(account solana.PublicKey, slot, amount uint64) domain.AccountUpdate {
	return domain.AccountUpdate{
		Account:    account,
		Amount:     amount,
		UIAmount:   float64(amount) / 1e9,
		Decimals:   9,
		Slot:       slot,
		ReceivedAt: time.Now(),
	}
}

func TestApplyDebouncesRepeatUpdates(t *testing.T) {
	s, h, b := debounceSync(time.Minute)
	ctx := context.Background()
	vault := acct(1)

	s.apply(ctx, upd(vault, 10, 100))
	s.apply(ctx, upd(vault, 11, 101))
	s.apply(ctx, upd(vault, 12, 102))

	if len(h.calls) != 1 {
		t.Errorf("handler calls = %d, want 1 within the debounce window", len(h.calls))
	}
	// Every accepted fold is still relayed even when evaluation is skipped.
	if b.relayed != 3 {
		t.Errorf("relayed = %d, want 3", b.relayed)
	}
	if snap, ok := s.table.Latest(vault); !ok || snap.Slot != 12 {
		t.Errorf("table slot = %v, want 12", snap.Slot)
	}
}

func TestApplyDebouncePerAccount(t *testing.T) {
	s, h, _ := debounceSync(time.Minute)
	ctx := context.Background()

	s.apply(ctx, upd(acct(1), 10, 100))
	s.apply(ctx, upd(acct(2), 10, 100))

	if len(h.calls) != 2 {
		t.Fatalf("handler calls = %d, want 2 for distinct accounts", len(h.calls))
	}
}

func TestApplyDropsZeroBalances(t *testing.T) {
	s, h, b := debounceSync(0)
	ctx := context.Background()
	vault := acct(1)

	s.apply(ctx, upd(vault, 10, 0))

	if len(h.calls) != 0 || b.relayed != 0 {
		t.Error("zero-balance update should not fold, relay, or evaluate")
	}
	if _, ok := s.table.Latest(vault); ok {
		t.Error("zero-balance update should not enter the table")
	}
}

func TestApplySkipsStaleSlots(t *testing.T) {
	s, h, _ := debounceSync(0)
	ctx := context.Background()
	vault := acct(1)

	s.apply(ctx, upd(vault, 12, 100))
	s.apply(ctx, upd(vault, 11, 999))

	if len(h.calls) != 1 {
		t.Errorf("handler calls = %d, want 1 after a stale slot", len(h.calls))
	}
	if snap, _ := s.table.Latest(vault); snap.Amount != 100 {
		t.Errorf("amount = %d, stale slot must not overwrite", snap.Amount)
	}
}
