package txn

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTempSeed(t *testing.T) {
	id := uuid.NewString()

	seed := tempSeed(id)
	if len(seed) != seedLen {
		t.Errorf("seed length = %d, want %d", len(seed), seedLen)
	}
	if strings.Contains(seed, "-") {
		t.Errorf("seed contains dashes: %q", seed)
	}
	if seed != tempSeed(id) {
		t.Error("seed must be deterministic per opportunity")
	}
	if seed == tempSeed(uuid.NewString()) {
		t.Error("different opportunities should produce different seeds")
	}
}

func TestTempSeedShortInput(t *testing.T) {
	if got := tempSeed("ab-cd"); got != "abcd" {
		t.Errorf("short seed = %q, want abcd", got)
	}
}
