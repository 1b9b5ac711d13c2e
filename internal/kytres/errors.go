// Package kytres defines the error *kinds* the engine reports,
// replacing the reference implementation's exception hierarchy
// (see spec.md §9, "Exception-for-flow in the source") with a single
// *Error type carrying a Kind, read back through KindOf or errors.As.
package kytres

import "fmt"

// Kind is one of the error categories enumerated in spec.md §7.
type Kind string

const (
	KindChainUnsupported   Kind = "ChainUnsupported"
	KindTxNotFound         Kind = "TxNotFound"
	KindInvalidInput       Kind = "InvalidInput"
	KindProviderDown       Kind = "ProviderDown"
	KindRateLimited        Kind = "RateLimited"
	KindPartialDegradation Kind = "PartialDegradation"
	KindInternal           Kind = "InternalError"
)

// Error wraps an underlying cause with one of the Kinds above so
// callers can branch on category without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Error defines no Is method, so errors.Is only matches the wrapped
// cause; branch on the category with KindOf below.

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func ChainUnsupported(op, chain string) *Error {
	return newErr(KindChainUnsupported, op, fmt.Errorf("unsupported chain: %s", chain))
}

func TxNotFound(op, chain, txID string) *Error {
	return newErr(KindTxNotFound, op, fmt.Errorf("transaction %s not found on %s", txID, chain))
}

func InvalidInput(op, msg string) *Error {
	return newErr(KindInvalidInput, op, fmt.Errorf("%s", msg))
}

func ProviderDown(op string, cause error) *Error {
	return newErr(KindProviderDown, op, cause)
}

func RateLimited(op string, cause error) *Error {
	return newErr(KindRateLimited, op, cause)
}

func PartialDegradation(op, note string) *Error {
	return newErr(KindPartialDegradation, op, fmt.Errorf("%s", note))
}

func Internal(op string, cause error) *Error {
	return newErr(KindInternal, op, cause)
}

// KindOf extracts the Kind from err if it (or something it wraps)
// is a *Error, defaulting to KindInternal otherwise.
func KindOf(err error) Kind {
	var kerr *Error
	if AsError(err, &kerr) {
		return kerr.Kind
	}
	return KindInternal
}

// AsError is a thin errors.As wrapper kept local to avoid importing
// "errors" at every call site that only needs KindOf.
func AsError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Cacheable reports whether a report produced under this error
// condition may be written to the Cache, per spec.md §7:
// ProviderDown and RateLimited reports are never cached;
// PartialDegradation reports are.
func Cacheable(kind Kind) bool {
	switch kind {
	case KindProviderDown, KindRateLimited, KindInternal:
		return false
	default:
		return true
	}
}
