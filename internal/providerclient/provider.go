// Package providerclient implements the Provider Client of spec.md
// §4.2: a rate-limited, retried, circuit-broken HTTP client that
// normalizes a chain-family-specific upstream API into the core's
// TxRecord / AddressMeta shapes, with optional multi-provider
// fan-out (spec.md §9: "Duck-typed provider polymorphism... replace
// with a closed BlockchainProvider capability set").
package providerclient

import (
	"context"

	"github.com/rawblock/kyt-engine/pkg/models"
)

// BlockchainProvider is the closed capability set every concrete
// provider (and the MultiProvider fan-out wrapper) implements.
type BlockchainProvider interface {
	Name() string
	SupportedChains() []string

	// GetTransaction fetches and normalizes a transaction. Fails
	// with a *kytres.Error of kind TxNotFound, RateLimited or
	// ProviderDown; HTTPProvider reports an undecodable response body
	// as ProviderDown.
	GetTransaction(ctx context.Context, chain, txID string) (models.TxRecord, error)

	// GetAddressMeta fetches address metadata. A provider reporting
	// no tags returns an empty tag set, not an error.
	GetAddressMeta(ctx context.Context, chain, address string) (models.AddressMeta, error)

	// GetIncomingTransaction fetches the most recent transaction
	// that paid into address — "the same API as get_transaction
	// applied to the address's history" (spec.md §4.4 step 5.b).
	// found is false when the address has no recorded incoming
	// transaction (e.g. a coinbase-only or freshly-created address).
	GetIncomingTransaction(ctx context.Context, chain, address string) (record models.TxRecord, found bool, err error)

	Health(ctx context.Context) Health

	Close() error
}

// Health is the never-failing status snapshot of spec.md §4.2's
// `health()` operation.
type Health struct {
	Provider     string `json:"provider"`
	State        string `json:"state"` // CLOSED | OPEN | HALF_OPEN
	RequestCount int64  `json:"requestCount"`
	LatestBlock  int64  `json:"latestBlock,omitempty"`
}
