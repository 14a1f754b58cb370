package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestCooldownGatesRepeatFires(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	e := New(nil, nil, nil, 100*time.Millisecond, logger)

	if e.onCooldown("route-a") {
		t.Fatal("fresh route should not be on cooldown")
	}

	e.markFired("route-a")
	if !e.onCooldown("route-a") {
		t.Error("route should be on cooldown right after firing")
	}
	if e.onCooldown("route-b") {
		t.Error("cooldown must be tracked per route")
	}
}

func TestCooldownExpires(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	e := New(nil, nil, nil, time.Nanosecond, logger)

	e.markFired("route-a")
	time.Sleep(time.Millisecond)
	if e.onCooldown("route-a") {
		t.Error("cooldown should expire after the configured window")
	}
}
