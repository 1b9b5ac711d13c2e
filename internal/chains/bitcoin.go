package chains

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ValidBitcoinAddress reports whether addr decodes as a mainnet
// Bitcoin address. The Provider Client's UTXO normalization uses
// this to drop garbage "address" fields a schema-drifted provider
// response might include, per spec.md §6's "client tolerates minor
// schema drift" contract, rather than trusting every string in an
// inputs[]/outputs[] entry.
func ValidBitcoinAddress(addr string) bool {
	if addr == "" {
		return false
	}
	_, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	return err == nil
}
