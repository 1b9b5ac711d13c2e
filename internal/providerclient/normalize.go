package providerclient

import (
	"strings"
	"time"

	"github.com/rawblock/kyt-engine/internal/chains"
	"github.com/rawblock/kyt-engine/pkg/models"
)

// validUTXOAddress drops garbage "address" fields a schema-drifted
// provider response might include (spec.md §6's "client tolerates
// minor schema drift" contract). Bitcoin is the only UTXO chain with
// a btcsuite decoder available; other UTXO chains (litecoin,
// dogecoin, dash, zcash, bitcoin-cash) use address formats
// btcutil.DecodeAddress doesn't recognize, so they pass through
// un-validated rather than being incorrectly rejected.
func validUTXOAddress(chain, addr string) bool {
	if addr == "" {
		return false
	}
	if chain == "bitcoin" {
		return chains.ValidBitcoinAddress(addr)
	}
	return true
}

// tagMapping maps upstream free-text keywords onto the spec's
// closed eight-tag RiskTag vocabulary, grounded on
// original_source/app/providers/blockchair.py's _parse_address_tags
// tag_mapping dict. Keywords for tags outside the spec's closed set
// (whale, ransomware, terrorist_financing in the reference) are
// intentionally omitted — see SPEC_FULL.md §4.8's "Extended risk-tag
// vocabulary" entry.
var tagMapping = map[string]models.RiskTag{
	"mixer":      models.TagMixer,
	"mixing":     models.TagMixer,
	"tumbler":    models.TagMixer,
	"darknet":    models.TagDarknet,
	"dark":       models.TagDarknet,
	"hack":       models.TagHack,
	"hacker":     models.TagHack,
	"stolen":     models.TagHack,
	"gambling":   models.TagGambling,
	"casino":     models.TagGambling,
	"exchange":   models.TagExchange,
	"scam":       models.TagScam,
	"phishing":   models.TagScam,
	"sanctioned": models.TagSanctioned,
	"ofac":       models.TagSanctioned,
}

func parseTags(strs ...string) []models.RiskTag {
	seen := make(map[models.RiskTag]bool)
	var out []models.RiskTag
	for _, s := range strs {
		lower := strings.ToLower(s)
		for keyword, tag := range tagMapping {
			if strings.Contains(lower, keyword) && !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

func parseISOTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, strings.Replace(s, "Z", "+00:00", 1))
	if err != nil {
		return nil
	}
	return &t
}

// parseUTXOTransaction normalizes a Blockchair-shaped dashboard
// response for a UTXO-family chain.
func parseUTXOTransaction(chain, txID string, entry map[string]any) models.TxRecord {
	rec := models.TxRecord{TxID: txID, Chain: chain, Family: models.FamilyUTXO}

	for _, raw := range asSlice(entry["inputs"]) {
		in := asMap(raw)
		addr := asString(in["recipient"])
		value := asFloat(in["value"]) / 1e8
		if !validUTXOAddress(chain, addr) {
			// No recipient address, or a garbage field a
			// schema-drifted response might include: a coinbase or
			// otherwise unattributable input. Ignored for tracing
			// but still counted, per spec.md §4.2.
			rec.CoinbaseValue += value
			continue
		}
		rec.Inputs = append(rec.Inputs, models.TxLeg{Address: addr, Value: value})
	}
	for _, raw := range asSlice(entry["outputs"]) {
		out := asMap(raw)
		addr := asString(out["recipient"])
		if !validUTXOAddress(chain, addr) {
			continue
		}
		rec.Outputs = append(rec.Outputs, models.TxLeg{
			Address: addr,
			Value:   asFloat(out["value"]) / 1e8,
		})
	}
	return rec
}

// parseAccountTransaction normalizes a Blockchair-shaped dashboard
// response for an ACCOUNT-family chain.
func parseAccountTransaction(chain, txID string, entry map[string]any, decimals int) models.TxRecord {
	rec := models.TxRecord{TxID: txID, Chain: chain, Family: models.FamilyAccount}
	info := asMap(entry["transaction"])

	divisor := pow10(decimals)
	rec.From = asString(info["sender"])
	rec.To = asString(info["recipient"])
	rec.Value = asFloat(info["value"]) / divisor

	for _, raw := range asSlice(entry["calls"]) {
		call := asMap(raw)
		rec.Internal = append(rec.Internal, models.InternalTransfer{
			From:  asString(call["sender"]),
			To:    asString(call["recipient"]),
			Value: asFloat(call["value"]) / divisor,
		})
	}
	return rec
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// parseAddressMeta normalizes a Blockchair-shaped address dashboard
// response.
func parseAddressMeta(chain, address string, entry map[string]any, family models.Family, decimals int) models.AddressMeta {
	addrObj := asMap(entry["address"])

	divisor := 1e8
	if family == models.FamilyAccount {
		divisor = pow10(decimals)
	}

	var textFields []string
	for _, key := range []string{"type", "label", "name", "entity"} {
		if s := asString(addrObj[key]); s != "" {
			textFields = append(textFields, s)
		}
	}
	for _, raw := range asSlice(entry["tags"]) {
		if s, ok := raw.(string); ok {
			textFields = append(textFields, s)
		}
	}

	meta := models.AddressMeta{
		Address:   address,
		Chain:     chain,
		Tags:      parseTags(textFields...),
		Balance:   asFloat(addrObj["balance"]) / divisor,
		TxCount:   asInt64(addrObj["transaction_count"]),
		FirstSeen: parseISOTime(asString(addrObj["first_seen_receiving"])),
		LastSeen:  parseISOTime(asString(addrObj["last_seen_receiving"])),
	}
	if len(textFields) > 0 {
		meta.Label = textFields[0]
	}
	return meta
}
