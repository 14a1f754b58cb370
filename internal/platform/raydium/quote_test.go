package raydium

import (
	"errors"
	"math"
	"testing"

	"github.com/quantfold/dexarb/internal/domain"
)

func TestSpotPrice(t *testing.T) {
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}
	if got := r.SpotPrice(); got != 0.001 {
		t.Errorf("spot price = %v, want 0.001", got)
	}
	if got := (Reserves{}).SpotPrice(); got != 0 {
		t.Errorf("empty pool spot price = %v, want 0", got)
	}
}

func TestExactInForOut(t *testing.T) {
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}

	// 1000 * 10000 / ((1000000 - 10000) * (1 - 0.0025))
	in, err := ExactInForOut(r, 10_000, 0.0025)
	if err != nil {
		t.Fatalf("ExactInForOut failed: %v", err)
	}
	want := 10_000_000.0 / 987_525.0
	if math.Abs(in-want) > 1e-9 {
		t.Errorf("in = %v, want %v", in, want)
	}

	// The depletion term makes the true cost strictly exceed the
	// zero-depletion estimate out*spot/(1-fee).
	naive := 10_000 * r.SpotPrice() / (1 - 0.0025)
	if in <= naive {
		t.Errorf("in = %v should exceed zero-depletion estimate %v", in, naive)
	}
}

func TestExactInForOutMonotonic(t *testing.T) {
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}

	prev := 0.0
	for _, out := range []float64{1, 10, 100, 1_000, 10_000, 100_000} {
		in, err := ExactInForOut(r, out, 0.0025)
		if err != nil {
			t.Fatalf("ExactInForOut(%v) failed: %v", out, err)
		}
		if in <= prev {
			t.Fatalf("in = %v for out = %v, must exceed %v", in, out, prev)
		}
		prev = in
	}

	// Cost vanishes with the requested output.
	in, err := ExactInForOut(r, 1e-9, 0.0025)
	if err != nil {
		t.Fatalf("ExactInForOut failed: %v", err)
	}
	if in >= 1e-10 {
		t.Errorf("in = %v for a vanishing output, want near zero", in)
	}
}

func TestExactInForOutRejects(t *testing.T) {
	r := Reserves{TokenUI: 1000, WSOLUI: 10}

	if _, err := ExactInForOut(r, 0, 0.0025); err == nil {
		t.Error("zero output should be rejected")
	}
	if _, err := ExactInForOut(r, -5, 0.0025); err == nil {
		t.Error("negative output should be rejected")
	}
	if _, err := ExactInForOut(r, 1000, 0.0025); !errors.Is(err, domain.ErrNoLiquidity) {
		t.Errorf("draining the pool should return ErrNoLiquidity, got %v", err)
	}
	if _, err := ExactInForOut(r, 10, 1.0); err == nil {
		t.Error("fee of 1 should be rejected")
	}
}

func TestImpactIsDepthConsumption(t *testing.T) {
	// With the fee removed, impact reduces to out / (reserve - out)
	// regardless of the fee rate.
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}
	for _, fee := range []float64{0, 0.0025, 0.01} {
		impact, err := Impact(r, 10_000, fee)
		if err != nil {
			t.Fatalf("Impact failed at fee %v: %v", fee, err)
		}
		want := 10_000.0 / 990_000.0
		if math.Abs(impact-want) > 1e-12 {
			t.Errorf("fee %v: impact = %v, want %v", fee, impact, want)
		}
	}
}

func TestSmartQuoteNoBisection(t *testing.T) {
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}
	cfg := QuoteConfig{
		ImpactThreshold: 0.05,
		MaxIterations:   32,
		MinFraction:     0.1,
		BaseSlippagePct: 0.1,
		MaxSlippagePct:  5,
	}

	sized, in, q, err := SmartQuote(r, 10_000, 0.0025, cfg)
	if err != nil {
		t.Fatalf("SmartQuote failed: %v", err)
	}
	if sized != 10_000 {
		t.Errorf("size below threshold should not shrink, got %v", sized)
	}
	unpadded := 10_000_000.0 / 987_525.0
	if in <= unpadded {
		t.Errorf("amount in %v should include slippage over %v", in, unpadded)
	}
	if q.SlippagePct <= cfg.BaseSlippagePct {
		t.Errorf("slippage %v should grow with impact", q.SlippagePct)
	}
}

func TestSmartQuoteBisectsDown(t *testing.T) {
	r := Reserves{TokenUI: 1_000_000, WSOLUI: 1000}
	cfg := QuoteConfig{
		ImpactThreshold: 0.005,
		MaxIterations:   40,
		MinFraction:     0.1,
		BaseSlippagePct: 0.1,
		MaxSlippagePct:  5,
	}

	sized, _, q, err := SmartQuote(r, 50_000, 0.0025, cfg)
	if err != nil {
		t.Fatalf("SmartQuote failed: %v", err)
	}
	if sized >= 50_000 {
		t.Errorf("size should shrink under impact pressure, got %v", sized)
	}
	if sized < 50_000*cfg.MinFraction {
		t.Errorf("size %v below MinFraction floor", sized)
	}
	// out / (reserve - out) == 0.005 at out ~= 4975
	if math.Abs(sized-4975.12) > 50 {
		t.Errorf("size = %v, want ~4975", sized)
	}
	if q.Impact > cfg.ImpactThreshold*1.01 {
		t.Errorf("final impact %v exceeds threshold %v", q.Impact, cfg.ImpactThreshold)
	}
}

func TestSmartQuoteClampsOversizedRequest(t *testing.T) {
	r := Reserves{TokenUI: 1000, WSOLUI: 10}
	cfg := QuoteConfig{
		ImpactThreshold: 0.5,
		MaxIterations:   20,
		MinFraction:     0.01,
		BaseSlippagePct: 0.1,
		MaxSlippagePct:  10,
	}

	sized, _, _, err := SmartQuote(r, 5000, 0.0025, cfg)
	if err != nil {
		t.Fatalf("SmartQuote failed: %v", err)
	}
	if sized >= r.TokenUI {
		t.Errorf("size %v must stay inside pool depth %v", sized, r.TokenUI)
	}
}

func TestRawAmountRoundsUp(t *testing.T) {
	tests := []struct {
		ui       float64
		decimals uint8
		want     uint64
	}{
		{1, 9, 1_000_000_000},
		{0.0000000015, 9, 2},
		{1.5, 6, 1_500_000},
		{0, 9, 0},
	}
	for _, tt := range tests {
		if got := RawAmount(tt.ui, tt.decimals); got != tt.want {
			t.Errorf("RawAmount(%v, %d) = %d, want %d", tt.ui, tt.decimals, got, tt.want)
		}
	}
}
