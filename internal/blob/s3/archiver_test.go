package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/quantfold/dexarb/internal/domain"
)

type fakeTradeStore struct {
	trades []domain.Trade
}

func (s *fakeTradeStore) Insert(ctx context.Context, trade domain.Trade) error {
	s.trades = append(s.trades, trade)
	return nil
}

func (s *fakeTradeStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, tr := range s.trades {
		if tr.DispatchedAt.Before(before) {
			out = append(out, tr)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeTradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	var kept []domain.Trade
	var deleted int64
	for _, tr := range s.trades {
		if tr.DispatchedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, tr)
	}
	s.trades = kept
	return deleted, nil
}

type fakeWriter struct {
	paths  []string
	bodies [][]byte
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	w.bodies = append(w.bodies, body)
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	return w.Put(ctx, path, data, "")
}

func tradeAt(ts time.Time, route string) domain.Trade {
	return domain.Trade{RouteID: route, Outcome: domain.OutcomeSent, DispatchedAt: ts}
}

func TestArchiveTrades(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTradeStore{}
	for i := 0; i < 10; i++ {
		store.trades = append(store.trades, tradeAt(base.Add(time.Duration(i)*time.Hour), "old"))
	}
	recent := tradeAt(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), "recent")
	store.trades = append(store.trades, recent)

	writer := &fakeWriter{}
	arch := NewTradeArchiver(writer, store, slog.Default())

	n, err := arch.ArchiveTrades(context.Background(), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ArchiveTrades failed: %v", err)
	}
	if n != 10 {
		t.Errorf("archived = %d, want 10", n)
	}
	if len(store.trades) != 1 || store.trades[0].RouteID != "recent" {
		t.Errorf("recent trade should survive, store holds %d", len(store.trades))
	}
	if len(writer.paths) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(writer.paths))
	}
	if !strings.HasPrefix(writer.paths[0], "archive/trades/2026-07/") {
		t.Errorf("path not month-partitioned: %s", writer.paths[0])
	}
	if lines := bytes.Count(writer.bodies[0], []byte("\n")); lines != 10 {
		t.Errorf("JSONL body has %d lines, want 10", lines)
	}
}

func TestArchiveTradesEmpty(t *testing.T) {
	arch := NewTradeArchiver(&fakeWriter{}, &fakeTradeStore{}, slog.Default())

	n, err := arch.ArchiveTrades(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveTrades failed: %v", err)
	}
	if n != 0 {
		t.Errorf("archived = %d, want 0", n)
	}
}

func TestArchivePathRange(t *testing.T) {
	oldest := time.Date(2026, 8, 1, 0, 1, 2, 0, time.UTC)
	newest := time.Date(2026, 8, 14, 23, 11, 2, 0, time.UTC)

	got := archivePath("trades", oldest, newest)
	want := "archive/trades/2026-08/20260801T000102-20260814T231102.jsonl"
	if got != want {
		t.Errorf("path = %s, want %s", got, want)
	}
}
