package models

import "time"

// TxLeg is one side of a UTXO transaction: an input or an output.
type TxLeg struct {
	Address string  `json:"address"`
	Value   float64 `json:"value"`
}

// InternalTransfer is a nested value movement inside an ACCOUNT-
// family transaction (e.g. an EVM internal call).
type InternalTransfer struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Value float64 `json:"value"`
}

// TxRecord is the chain-agnostic normalized shape a Provider Client
// returns for `get_transaction`. Only the fields for the record's
// own Family are populated.
type TxRecord struct {
	TxID   string `json:"txId"`
	Chain  string `json:"chain"`
	Family Family `json:"family"`

	// ACCOUNT family.
	From     string             `json:"from,omitempty"`
	To       string             `json:"to,omitempty"`
	Value    float64            `json:"value,omitempty"`
	Internal []InternalTransfer `json:"internal,omitempty"`

	// UTXO family.
	Inputs        []TxLeg `json:"inputs,omitempty"`
	Outputs       []TxLeg `json:"outputs,omitempty"`
	CoinbaseValue float64 `json:"coinbaseValue,omitempty"`
}

// SourceContribution is one (address, value) pair attributable to a
// transaction's funding side, used to seed or expand BFS layers.
type SourceContribution struct {
	Address      string
	Contribution float64
}

// SourceAddresses derives the set of source addresses and their
// per-address value contribution from a TxRecord, per spec.md
// §4.2's Normalization rules. For UTXO records, inputs sharing the
// same address are summed; for ACCOUNT records the sender plus any
// internal-transfer senders are included.
func (t TxRecord) SourceAddresses() []SourceContribution {
	switch t.Family {
	case FamilyUTXO:
		byAddr := make(map[string]float64)
		order := make([]string, 0, len(t.Inputs))
		for _, in := range t.Inputs {
			if in.Address == "" {
				continue // coinbase or unattributable input
			}
			if _, seen := byAddr[in.Address]; !seen {
				order = append(order, in.Address)
			}
			byAddr[in.Address] += in.Value
		}
		out := make([]SourceContribution, 0, len(order))
		for _, addr := range order {
			out = append(out, SourceContribution{Address: addr, Contribution: byAddr[addr]})
		}
		return out
	default: // FamilyAccount
		byAddr := make(map[string]float64)
		order := make([]string, 0, len(t.Internal)+1)
		if t.From != "" {
			byAddr[t.From] += t.Value
			order = append(order, t.From)
		}
		for _, itx := range t.Internal {
			if itx.From == "" {
				continue
			}
			if _, seen := byAddr[itx.From]; !seen {
				order = append(order, itx.From)
			}
			byAddr[itx.From] += itx.Value
		}
		out := make([]SourceContribution, 0, len(order))
		for _, addr := range order {
			out = append(out, SourceContribution{Address: addr, Contribution: byAddr[addr]})
		}
		return out
	}
}

// AddressMeta is the normalized shape a Provider Client returns for
// `get_address_meta`. A provider reporting no tags returns an empty
// Tags slice, never an error.
type AddressMeta struct {
	Address   string     `json:"address"`
	Chain     string     `json:"chain"`
	Tags      []RiskTag  `json:"tags"`
	Balance   float64    `json:"balance"`
	TxCount   int64      `json:"txCount"`
	FirstSeen *time.Time `json:"firstSeen,omitempty"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	Label     string     `json:"label,omitempty"`

	// Unavailable is not set by the Provider Client or the Tracer;
	// when a non-root fetch fails, the Tracer marks the TraceNode
	// (TraceNode.Unavailable) instead, treats it as terminal with no
	// score contribution, and logs a degradation note.
	Unavailable bool `json:"-"`
}
