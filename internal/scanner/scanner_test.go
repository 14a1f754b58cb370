package scanner

import "testing"

func TestSymbolFromPairName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"TRUMP-SOL", "TRUMP"},
		{"BONK/SOL", "BONK"},
		{"WIF-USDC-SOL", "WIF"},
		{"PLAIN", "PLAIN"},
		{"", ""},
		{"-SOL", "-SOL"}, // leading separator carries no symbol
	}
	for _, tt := range tests {
		if got := symbolFromPairName(tt.name); got != tt.want {
			t.Errorf("symbolFromPairName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
