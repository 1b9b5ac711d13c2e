package providerclient

import (
	"testing"

	"github.com/rawblock/kyt-engine/pkg/models"
)

func TestParseTags_KeywordMatching(t *testing.T) {
	tags := parseTags("Known Bitcoin Mixer", "Darknet Market", "")
	want := map[models.RiskTag]bool{models.TagMixer: true, models.TagDarknet: true}
	if len(tags) != len(want) {
		t.Fatalf("got %v, want exactly %v", tags, want)
	}
	for _, tag := range tags {
		if !want[tag] {
			t.Errorf("unexpected tag %s", tag)
		}
	}
}

func TestParseTags_NoMatchIsEmpty(t *testing.T) {
	if tags := parseTags("just a regular wallet"); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestParseUTXOTransaction_DividesBySatoshi(t *testing.T) {
	entry := map[string]any{
		"inputs": []any{
			map[string]any{"recipient": "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", "value": float64(150000000)},
		},
		"outputs": []any{
			map[string]any{"recipient": "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", "value": float64(100000000)},
		},
	}
	rec := parseUTXOTransaction("bitcoin", "tx1", entry)
	if rec.Family != models.FamilyUTXO {
		t.Fatalf("family = %v", rec.Family)
	}
	if len(rec.Inputs) != 1 || rec.Inputs[0].Value != 1.5 {
		t.Fatalf("inputs = %+v, want 1.5 BTC", rec.Inputs)
	}
	if len(rec.Outputs) != 1 || rec.Outputs[0].Value != 1.0 {
		t.Fatalf("outputs = %+v, want 1.0 BTC", rec.Outputs)
	}
}

func TestParseAccountTransaction_DividesByDecimals(t *testing.T) {
	entry := map[string]any{
		"transaction": map[string]any{
			"sender":    "0xfrom",
			"recipient": "0xto",
			"value":     float64(2_000000000000000000),
		},
		"calls": []any{
			map[string]any{"sender": "0xcontract", "recipient": "0xbeneficiary", "value": float64(500000000000000000)},
		},
	}
	rec := parseAccountTransaction("ethereum", "tx2", entry, 18)
	if rec.Value != 2.0 {
		t.Fatalf("value = %v, want 2.0", rec.Value)
	}
	if len(rec.Internal) != 1 || rec.Internal[0].Value != 0.5 {
		t.Fatalf("internal = %+v, want 0.5", rec.Internal)
	}
}

func TestParseUTXOTransaction_CoinbaseInputCountedNotTraced(t *testing.T) {
	entry := map[string]any{
		"inputs": []any{
			map[string]any{"recipient": "", "value": float64(625000000)},
		},
		"outputs": []any{
			map[string]any{"recipient": "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "value": float64(625000000)},
		},
	}
	rec := parseUTXOTransaction("bitcoin", "coinbase-tx", entry)
	if len(rec.Inputs) != 0 {
		t.Fatalf("expected the coinbase input to be excluded from Inputs, got %+v", rec.Inputs)
	}
	if rec.CoinbaseValue != 6.25 {
		t.Fatalf("coinbase value = %v, want 6.25", rec.CoinbaseValue)
	}
}

func TestParseUTXOTransaction_GarbageBitcoinAddressDropped(t *testing.T) {
	entry := map[string]any{
		"inputs": []any{
			// Not a decodable mainnet address: a schema-drifted or
			// corrupted field, must be treated like a missing one.
			map[string]any{"recipient": "not-a-real-address", "value": float64(100000000)},
		},
	}
	rec := parseUTXOTransaction("bitcoin", "tx3", entry)
	if len(rec.Inputs) != 0 {
		t.Fatalf("expected the garbage address to be dropped, got %+v", rec.Inputs)
	}
	if rec.CoinbaseValue != 1.0 {
		t.Fatalf("coinbase value = %v, want 1.0 (garbage input still counted)", rec.CoinbaseValue)
	}
}

func TestParseUTXOTransaction_NonBitcoinUTXOChainSkipsAddressValidation(t *testing.T) {
	// litecoin addresses don't decode under btcutil's mainnet Bitcoin
	// params; validation must not reject them.
	entry := map[string]any{
		"inputs": []any{
			map[string]any{"recipient": "LTeaSRQ4cLVdC5R9E9hvCuQ3dnHrU8kvyZ", "value": float64(100000000)},
		},
	}
	rec := parseUTXOTransaction("litecoin", "tx4", entry)
	if len(rec.Inputs) != 1 || rec.Inputs[0].Address != "LTeaSRQ4cLVdC5R9E9hvCuQ3dnHrU8kvyZ" {
		t.Fatalf("expected the litecoin address to pass through un-validated, got %+v", rec.Inputs)
	}
}

func TestParseAddressMeta_CollectsTagsAndLabel(t *testing.T) {
	entry := map[string]any{
		"address": map[string]any{
			"type":              "Known Mixer Service",
			"balance":           float64(100000000),
			"transaction_count": float64(42),
		},
	}
	meta := parseAddressMeta("bitcoin", "addrX", entry, models.FamilyUTXO, 8)
	if meta.Balance != 1.0 {
		t.Fatalf("balance = %v, want 1.0", meta.Balance)
	}
	if meta.TxCount != 42 {
		t.Fatalf("tx count = %d, want 42", meta.TxCount)
	}
	if len(meta.Tags) != 1 || meta.Tags[0] != models.TagMixer {
		t.Fatalf("tags = %v, want [MIXER]", meta.Tags)
	}
	if meta.Label == "" {
		t.Fatal("expected a non-empty label")
	}
}
