package providerclient

import (
	"context"
	"strings"

	"github.com/rawblock/kyt-engine/pkg/models"
)

// MultiProvider wraps a primary provider plus optional per-chain
// preferred providers, grounded on original_source/app/providers/
// multi_provider.py's MultiProviderManager: a chain-keyed selection
// function, per-operation try-preferred-then-fallback-to-primary,
// and an aggregated Health() across every wrapped provider. There is
// no cross-provider state sharing (spec.md §4.2) — each wrapped
// BlockchainProvider owns its own pacer/breaker/request count.
type MultiProvider struct {
	primary   BlockchainProvider
	preferred map[string]BlockchainProvider // chain -> provider, e.g. bitcoin -> blockchain.com-shaped provider
}

// NewMultiProvider builds a fan-out wrapper. preferred may be nil or
// partially populated; any chain absent from it falls through to
// primary directly.
func NewMultiProvider(primary BlockchainProvider, preferred map[string]BlockchainProvider) *MultiProvider {
	return &MultiProvider{primary: primary, preferred: preferred}
}

func (m *MultiProvider) Name() string { return "multi_provider" }

func (m *MultiProvider) SupportedChains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range m.primary.SupportedChains() {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, p := range m.preferred {
		for _, id := range p.SupportedChains() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// selected returns the preferred provider for chain if one is
// wired, else the primary.
func (m *MultiProvider) selected(chain string) BlockchainProvider {
	if p, ok := m.preferred[strings.ToLower(chain)]; ok {
		return p
	}
	return m.primary
}

func (m *MultiProvider) GetTransaction(ctx context.Context, chain, txID string) (models.TxRecord, error) {
	provider := m.selected(chain)
	rec, err := provider.GetTransaction(ctx, chain, txID)
	if err != nil && provider != m.primary {
		return m.primary.GetTransaction(ctx, chain, txID)
	}
	return rec, err
}

func (m *MultiProvider) GetAddressMeta(ctx context.Context, chain, address string) (models.AddressMeta, error) {
	provider := m.selected(chain)
	meta, err := provider.GetAddressMeta(ctx, chain, address)
	if err != nil && provider != m.primary {
		return m.primary.GetAddressMeta(ctx, chain, address)
	}
	return meta, err
}

func (m *MultiProvider) GetIncomingTransaction(ctx context.Context, chain, address string) (models.TxRecord, bool, error) {
	provider := m.selected(chain)
	rec, found, err := provider.GetIncomingTransaction(ctx, chain, address)
	if err != nil && provider != m.primary {
		return m.primary.GetIncomingTransaction(ctx, chain, address)
	}
	return rec, found, err
}

// Health aggregates every wrapped provider's health snapshot; the
// combined RequestCount is the sum across all of them (original's
// get_request_count aggregation).
func (m *MultiProvider) Health(ctx context.Context) Health {
	total := int64(0)
	primary := m.primary.Health(ctx)
	total += primary.RequestCount
	for _, p := range m.preferred {
		total += p.Health(ctx).RequestCount
	}
	return Health{
		Provider:     m.Name(),
		State:        primary.State,
		RequestCount: total,
	}
}

func (m *MultiProvider) Close() error {
	var firstErr error
	if err := m.primary.Close(); err != nil {
		firstErr = err
	}
	for _, p := range m.preferred {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
