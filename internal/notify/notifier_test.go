package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (s *recordingSender) Send(ctx context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func TestNotifyFiltersEvents(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{EventTrade}, slog.Default())

	if err := n.Notify(context.Background(), EventTrade, "trade", "body"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if err := n.Notify(context.Background(), EventToken, "token", "body"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(sender.titles) != 1 || sender.titles[0] != "trade" {
		t.Errorf("filter let through: %v", sender.titles)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, slog.Default())

	_ = n.Notify(context.Background(), EventTrade, "a", "")
	_ = n.Notify(context.Background(), EventToken, "b", "")

	if len(sender.titles) != 2 {
		t.Errorf("expected 2 deliveries, got %v", sender.titles)
	}
}

func TestNotifyContinuesPastFailedSender(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.Notify(context.Background(), EventTrade, "t", "")
	if err == nil {
		t.Error("expected combined error from failed sender")
	}
	if len(good.titles) != 1 {
		t.Error("healthy sender should still deliver")
	}
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, slog.Default())
	if err := n.Notify(context.Background(), EventTrade, "t", ""); err != nil {
		t.Errorf("no senders should be a silent no-op: %v", err)
	}
}
