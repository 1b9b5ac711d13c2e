package chains

import (
	"testing"

	"github.com/rawblock/kyt-engine/internal/kytres"
	"github.com/rawblock/kyt-engine/pkg/models"
)

func TestLookup_Known(t *testing.T) {
	spec, err := Lookup("bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Family != models.FamilyUTXO {
		t.Fatalf("bitcoin family = %v, want UTXO", spec.Family)
	}
	if spec.Decimals != 8 {
		t.Fatalf("bitcoin decimals = %d, want 8", spec.Decimals)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("not-a-real-chain")
	if kytres.KindOf(err) != kytres.KindChainUnsupported {
		t.Fatalf("expected KindChainUnsupported, got %v", kytres.KindOf(err))
	}
}

func TestList_SortedAndNonEmpty(t *testing.T) {
	specs := List()
	if len(specs) == 0 {
		t.Fatal("expected a non-empty chain list")
	}
	for i := 1; i < len(specs); i++ {
		if specs[i-1].ID >= specs[i].ID {
			t.Fatalf("chain list not sorted at index %d: %s >= %s", i, specs[i-1].ID, specs[i].ID)
		}
	}
}

func TestEVMChainsHaveInternalTransfers(t *testing.T) {
	spec, err := Lookup("ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasInternalTransfers {
		t.Fatal("ethereum should report HasInternalTransfers")
	}
	if spec.Family != models.FamilyAccount {
		t.Fatalf("ethereum family = %v, want Account", spec.Family)
	}
}
