// Package chains is the Chain Registry (spec.md §4.1): a frozen
// table mapping chain identifiers to their family, display name,
// native decimal precision and provider path fragment.
package chains

import (
	"sort"

	"github.com/rawblock/kyt-engine/internal/kytres"
	"github.com/rawblock/kyt-engine/pkg/models"
)

// registry is populated once at package init and never mutated
// afterwards; safe for unsynchronized concurrent reads.
var registry = map[string]models.ChainSpec{
	// UTXO-based chains.
	"bitcoin":      spec("bitcoin", "Bitcoin", models.FamilyUTXO, 8, "bitcoin", "BTC", false),
	"bitcoin-cash": spec("bitcoin-cash", "Bitcoin Cash", models.FamilyUTXO, 8, "bitcoin-cash", "BCH", false),
	"litecoin":     spec("litecoin", "Litecoin", models.FamilyUTXO, 8, "litecoin", "LTC", false),
	"dogecoin":     spec("dogecoin", "Dogecoin", models.FamilyUTXO, 8, "dogecoin", "DOGE", false),
	"dash":         spec("dash", "Dash", models.FamilyUTXO, 8, "dash", "DASH", false),
	"zcash":        spec("zcash", "Zcash", models.FamilyUTXO, 8, "zcash", "ZEC", false),

	// Account-based (EVM) chains.
	"ethereum":             spec("ethereum", "Ethereum", models.FamilyAccount, 18, "ethereum", "ETH", true),
	"binance-smart-chain":  spec("binance-smart-chain", "BNB Smart Chain", models.FamilyAccount, 18, "binance-smart-chain", "BNB", true),
	"polygon":              spec("polygon", "Polygon", models.FamilyAccount, 18, "polygon", "MATIC", true),
	"arbitrum":             spec("arbitrum", "Arbitrum", models.FamilyAccount, 18, "arbitrum", "ETH", true),
	"optimism":             spec("optimism", "Optimism", models.FamilyAccount, 18, "optimism", "ETH", true),
	"avalanche":            spec("avalanche", "Avalanche", models.FamilyAccount, 18, "avalanche", "AVAX", true),
	"base":                 spec("base", "Base", models.FamilyAccount, 18, "base", "ETH", true),

	// Non-EVM account-based chains.
	"tron":   spec("tron", "Tron", models.FamilyAccount, 6, "tron", "TRX", false),
	"solana": spec("solana", "Solana", models.FamilyAccount, 9, "solana", "SOL", false),
}

func spec(id, name string, family models.Family, decimals int, apiPath, symbol string, internalTxs bool) models.ChainSpec {
	return models.ChainSpec{
		ID:                   id,
		DisplayName:          name,
		Family:               family,
		Decimals:             decimals,
		APIPath:              apiPath,
		NativeSymbol:         symbol,
		HasInternalTransfers: internalTxs,
	}
}

// Lookup returns the ChainSpec for id, or a ChainUnsupported error.
func Lookup(id string) (models.ChainSpec, error) {
	cs, ok := registry[id]
	if !ok {
		return models.ChainSpec{}, kytres.ChainUnsupported("chains.Lookup", id)
	}
	return cs, nil
}

// List returns every supported ChainSpec sorted by ID, for the
// list_chains() external operation (spec.md §6).
func List() []models.ChainSpec {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.ChainSpec, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry[id])
	}
	return out
}
