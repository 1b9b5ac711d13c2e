package providerclient

import (
	"context"
	"errors"
	"testing"

	"github.com/rawblock/kyt-engine/pkg/models"
)

// stubProvider is a minimal hand-rolled BlockchainProvider double
// for fan-out tests.
type stubProvider struct {
	name       string
	txErr      error
	txRecord   models.TxRecord
	calls      int
}

func (s *stubProvider) Name() string            { return s.name }
func (s *stubProvider) SupportedChains() []string { return []string{"bitcoin"} }

func (s *stubProvider) GetTransaction(ctx context.Context, chain, txID string) (models.TxRecord, error) {
	s.calls++
	if s.txErr != nil {
		return models.TxRecord{}, s.txErr
	}
	return s.txRecord, nil
}

func (s *stubProvider) GetAddressMeta(ctx context.Context, chain, address string) (models.AddressMeta, error) {
	return models.AddressMeta{Address: address, Chain: chain}, nil
}

func (s *stubProvider) GetIncomingTransaction(ctx context.Context, chain, address string) (models.TxRecord, bool, error) {
	return models.TxRecord{}, false, nil
}

func (s *stubProvider) Health(ctx context.Context) Health {
	return Health{Provider: s.name, State: "CLOSED", RequestCount: int64(s.calls)}
}

func (s *stubProvider) Close() error { return nil }

func TestMultiProvider_PrefersPerChainProvider(t *testing.T) {
	preferred := &stubProvider{name: "preferred", txRecord: models.TxRecord{TxID: "tx1"}}
	primary := &stubProvider{name: "primary", txRecord: models.TxRecord{TxID: "should-not-be-used"}}

	mp := NewMultiProvider(primary, map[string]BlockchainProvider{"bitcoin": preferred})
	rec, err := mp.GetTransaction(context.Background(), "bitcoin", "tx1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TxID != "tx1" {
		t.Fatalf("expected the preferred provider's result, got %+v", rec)
	}
	if primary.calls != 0 {
		t.Fatalf("expected primary not to be called when preferred succeeds, calls=%d", primary.calls)
	}
}

func TestMultiProvider_FallsBackToPrimaryOnError(t *testing.T) {
	preferred := &stubProvider{name: "preferred", txErr: errors.New("preferred is down")}
	primary := &stubProvider{name: "primary", txRecord: models.TxRecord{TxID: "fallback-tx"}}

	mp := NewMultiProvider(primary, map[string]BlockchainProvider{"bitcoin": preferred})
	rec, err := mp.GetTransaction(context.Background(), "bitcoin", "tx1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TxID != "fallback-tx" {
		t.Fatalf("expected fallback to primary, got %+v", rec)
	}
}

func TestMultiProvider_HealthAggregatesRequestCounts(t *testing.T) {
	preferred := &stubProvider{name: "preferred", txRecord: models.TxRecord{TxID: "tx1"}}
	primary := &stubProvider{name: "primary", txRecord: models.TxRecord{TxID: "tx1"}}
	mp := NewMultiProvider(primary, map[string]BlockchainProvider{"bitcoin": preferred})

	mp.GetTransaction(context.Background(), "bitcoin", "tx1")
	mp.GetTransaction(context.Background(), "bitcoin", "tx2")

	h := mp.Health(context.Background())
	if h.RequestCount != 2 {
		t.Fatalf("aggregated RequestCount = %d, want 2", h.RequestCount)
	}
}
