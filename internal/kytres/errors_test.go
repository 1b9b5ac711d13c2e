package kytres

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_DirectAndWrapped(t *testing.T) {
	base := TxNotFound("GetTransaction", "bitcoin", "deadbeef")
	if KindOf(base) != KindTxNotFound {
		t.Fatalf("KindOf(direct) = %v, want TxNotFound", KindOf(base))
	}

	wrapped := fmt.Errorf("while processing: %w", base)
	if KindOf(wrapped) != KindTxNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want TxNotFound", KindOf(wrapped))
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatal("expected a plain error to classify as KindInternal")
	}
}

func TestCacheable(t *testing.T) {
	cases := map[Kind]bool{
		KindProviderDown:       false,
		KindRateLimited:        false,
		KindInternal:           false,
		KindPartialDegradation: true,
		KindTxNotFound:         true,
		KindChainUnsupported:   true,
		KindInvalidInput:       true,
	}
	for kind, want := range cases {
		if got := Cacheable(kind); got != want {
			t.Errorf("Cacheable(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("upstream reset")
	err := ProviderDown("GetAddressMeta", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through Unwrap to the cause")
	}
}
