// Package models holds the wire and domain types shared by the
// provider client, cache, tracer and risk scorer: chain-agnostic
// transaction and address records, trace nodes and the final risk
// report.
package models

// Family classifies a blockchain's transaction shape.
type Family string

const (
	FamilyUTXO    Family = "utxo"
	FamilyAccount Family = "account"
)

// ChainSpec is the frozen, per-chain configuration the Chain
// Registry exposes. Contents are configuration, not core design.
type ChainSpec struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"displayName"`
	Family               Family `json:"family"`
	Decimals             int    `json:"decimals"`
	APIPath              string `json:"apiPath"`
	NativeSymbol         string `json:"nativeSymbol"`
	HasInternalTransfers bool   `json:"hasInternalTransfers"`
}
