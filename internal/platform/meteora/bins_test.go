package meteora

import (
	"errors"
	"math"
	"testing"

	"github.com/quantfold/dexarb/internal/domain"
)

func TestWindowArrayIndexes(t *testing.T) {
	tests := []struct {
		active int32
		left   int
		right  int
		want   []int64
	}{
		{active: 35, left: 10, right: 10, want: []int64{0}},
		{active: 0, left: 5, right: 5, want: []int64{-1, 0}},
		{active: 69, left: 0, right: 1, want: []int64{0, 1}},
		{active: -70, left: 0, right: 0, want: []int64{-1}},
	}
	for _, tt := range tests {
		got := WindowArrayIndexes(tt.active, tt.left, tt.right)
		if len(got) != len(tt.want) {
			t.Errorf("active %d: got %v, want %v", tt.active, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("active %d: got %v, want %v", tt.active, got, tt.want)
				break
			}
		}
	}
}

func TestBinArrayIndexNegative(t *testing.T) {
	tests := []struct {
		binID int32
		want  int64
	}{
		{0, 0},
		{69, 0},
		{70, 1},
		{-1, -1},
		{-70, -1},
		{-71, -2},
	}
	for _, tt := range tests {
		if got := binArrayIndex(tt.binID); got != tt.want {
			t.Errorf("binArrayIndex(%d) = %d, want %d", tt.binID, got, tt.want)
		}
	}
	// lowerBinID inverts binArrayIndex at array boundaries.
	if lowerBinID(-1) != -70 || lowerBinID(1) != 70 {
		t.Errorf("lowerBinID boundaries wrong: %d, %d", lowerBinID(-1), lowerBinID(1))
	}
}

// sellWindow builds a window whose Y-side liquidity sits at and below the
// active bin, the shape AggregateSell consumes.
func sellWindow() domain.BinWindow {
	return domain.BinWindow{
		ActiveBin: 100,
		Bins: []domain.Bin{
			{ID: 97, AmountY: 3_000_000_000, Price: 0.00099, RawPrice: 0.99},
			{ID: 98, AmountY: 0, Price: 0.000995, RawPrice: 0.995}, // drained
			{ID: 99, AmountY: 2_000_000_000, Price: 0.000999, RawPrice: 0.999},
			{ID: 100, AmountY: 1_000_000_000, Price: 0.001, RawPrice: 1.0},
			{ID: 101, AmountX: 500, Price: 0.001001, RawPrice: 1.001}, // above active, X only
		},
	}
}

func TestAggregateSell(t *testing.T) {
	plan, err := AggregateSell(sellWindow(), 2)
	if err != nil {
		t.Fatalf("AggregateSell failed: %v", err)
	}
	if plan.BinsUsed != 2 {
		t.Errorf("bins used = %d, want 2", plan.BinsUsed)
	}
	// Active bin plus bin 99; the drained bin does not count against the
	// budget and bin 101 is above the active bin.
	if plan.TotalY != 3_000_000_000 {
		t.Errorf("total Y = %d, want 3000000000", plan.TotalY)
	}
	wantXF := float64(1_000_000_000)/1.0 + float64(2_000_000_000)/0.999
	wantX := uint64(wantXF)
	if plan.TokenX != wantX {
		t.Errorf("token X = %d, want %d", plan.TokenX, wantX)
	}
	if len(plan.ArrayIndexes) != 1 || plan.ArrayIndexes[0] != 1 {
		t.Errorf("array indexes = %v, want [1]", plan.ArrayIndexes)
	}
}

func TestAggregateSellSkipsDrainedBins(t *testing.T) {
	plan, err := AggregateSell(sellWindow(), 10)
	if err != nil {
		t.Fatalf("AggregateSell failed: %v", err)
	}
	if plan.BinsUsed != 3 {
		t.Errorf("bins used = %d, want 3", plan.BinsUsed)
	}
	if plan.TotalY != 6_000_000_000 {
		t.Errorf("total Y = %d, want 6000000000", plan.TotalY)
	}
}

func TestAggregateSellNoLiquidity(t *testing.T) {
	w := domain.BinWindow{
		ActiveBin: 100,
		Bins:      []domain.Bin{{ID: 101, AmountX: 10, Price: 0.001, RawPrice: 1}},
	}
	if _, err := AggregateSell(w, 5); !errors.Is(err, domain.ErrNoLiquidity) {
		t.Errorf("expected ErrNoLiquidity, got %v", err)
	}
	if _, err := AggregateSell(sellWindow(), 0); err == nil {
		t.Error("zero bin budget should be rejected")
	}
}

func TestSellOutFillsActiveBinFirst(t *testing.T) {
	// yDecimals 9: the active bin holds 1 Y at price 0.001, absorbing
	// 1000 X. Selling 400 X stays inside it.
	yOut, used := SellOut(sellWindow(), 400, 10, 9)
	if used != 1 {
		t.Errorf("bins used = %d, want 1", used)
	}
	if math.Abs(yOut-0.4) > 1e-12 {
		t.Errorf("y out = %v, want 0.4", yOut)
	}
}

func TestSellOutSpillsToLowerBins(t *testing.T) {
	// 1500 X: 1000 fill the active bin (1 Y), the remaining 500 sell at
	// 0.000999 into bin 99.
	yOut, used := SellOut(sellWindow(), 1500, 10, 9)
	if used != 2 {
		t.Errorf("bins used = %d, want 2", used)
	}
	want := 1.0 + 500*0.000999
	if math.Abs(yOut-want) > 1e-12 {
		t.Errorf("y out = %v, want %v", yOut, want)
	}
}

func TestSellOutTruncatesAtMaxBins(t *testing.T) {
	// A huge sale truncates at maxBins regardless of remaining size.
	yOut, used := SellOut(sellWindow(), 1e9, 2, 9)
	if used != 2 {
		t.Errorf("bins used = %d, want 2", used)
	}
	want := 1.0 + 2.0 // all Y of the first two nonempty bins
	if math.Abs(yOut-want) > 1e-9 {
		t.Errorf("y out = %v, want %v", yOut, want)
	}

	if out, used := SellOut(sellWindow(), 0, 2, 9); out != 0 || used != 0 {
		t.Errorf("zero size should be a no-op, got %v, %d", out, used)
	}
}

func TestPairBaseFeeRate(t *testing.T) {
	p := Pair{BinStep: 10, BaseFactor: 10_000}
	// 10 * 10000 * 10 / 1e9 = 0.001
	if got := p.BaseFeeRate(); math.Abs(got-0.001) > 1e-15 {
		t.Errorf("base fee = %v, want 0.001", got)
	}
}

func TestPairTotalFeeRate(t *testing.T) {
	base := Pair{BinStep: 10, BaseFactor: 10_000}
	if got := base.TotalFeeRate(); math.Abs(got-base.BaseFeeRate()) > 1e-15 {
		t.Errorf("with zero volatility, total %v should equal base %v", got, base.BaseFeeRate())
	}

	hot := Pair{BinStep: 10, BaseFactor: 10_000, VariableFeeControl: 40_000, VolatilityAccumulator: 10_000}
	if hot.TotalFeeRate() <= hot.BaseFeeRate() {
		t.Errorf("volatility should raise the fee: total %v, base %v", hot.TotalFeeRate(), hot.BaseFeeRate())
	}

	capped := Pair{BinStep: 100, BaseFactor: 60_000, VariableFeeControl: 2_000_000, VolatilityAccumulator: 20_000}
	if got := capped.TotalFeeRate(); got != 0.10 {
		t.Errorf("total fee should cap at 10%%, got %v", got)
	}
}

func TestBinArrayPDADeterministic(t *testing.T) {
	pair := ProgramID // any fixed key works as the pair address here

	a, err := BinArrayPDA(pair, 3)
	if err != nil {
		t.Fatalf("BinArrayPDA failed: %v", err)
	}
	b, err := BinArrayPDA(pair, 3)
	if err != nil {
		t.Fatalf("BinArrayPDA failed: %v", err)
	}
	if !a.Equals(b) {
		t.Error("same inputs must derive the same address")
	}
	c, err := BinArrayPDA(pair, 4)
	if err != nil {
		t.Fatalf("BinArrayPDA failed: %v", err)
	}
	if a.Equals(c) {
		t.Error("different indexes must derive different addresses")
	}
}
