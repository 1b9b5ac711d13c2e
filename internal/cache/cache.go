// Package cache implements the two-tier Cache of spec.md §4.3: a
// pluggable persistent backend behind a small capability interface,
// and a per-analysis in-process memoization layer that never
// evicts. Backend selection is a factory, per spec.md §9's "Cache
// backend selection via strings... a factory that returns an
// implementer of the Cache capability set."
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Backend is the capability every persistent cache implementation
// provides. A Put failure MUST be logged and continued past by the
// caller — correctness must never depend on successful persistence.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) bool
	Close() error
}

// Keys formats the three opaque, namespaced key shapes spec.md
// §4.3 defines, carried over from the reference implementation's
// CacheBackend._make_key/address_key/transaction_key/risk_key
// helpers (original_source/app/core/cache.py).
type Keys struct{}

func (Keys) Transaction(chain, txID string) string {
	return "kyt:tx:" + chain + ":" + strings.ToLower(txID)
}

func (Keys) Address(chain, address string) string {
	return "kyt:addr:" + chain + ":" + strings.ToLower(address)
}

func (Keys) Report(chain, txID string, depth int) string {
	return "kyt:report:" + chain + ":" + strings.ToLower(txID) + ":" + strconv.Itoa(depth)
}
