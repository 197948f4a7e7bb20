package ports

import (
	"errors"
	"fmt"

	"github.com/obedier/fundscore/internal/domain"
)

// Common infrastructure errors surfaced by the engine's collaborators.
var (
	// ErrNotFound indicates that a referenced entity, candidate, or
	// reference row does not exist. It is returned immediately and
	// never retried; callers must keep it distinguishable from a zero
	// score.
	ErrNotFound = errors.New("not found")

	// ErrLedgerUnavailable indicates that every transaction-variant
	// read failed and no aggregation could be produced. A single failed
	// variant degrades the record instead of raising this.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrTimeout indicates that a caller-supplied deadline expired
	// mid-computation. The partial score record is discarded; nothing
	// was written.
	ErrTimeout = errors.New("operation timed out")

	// ErrStoreUnavailable indicates that the configuration store could
	// not be read.
	ErrStoreUnavailable = errors.New("configuration store unavailable")
)

// LedgerError reports a failed read of one transaction variant. The
// aggregation engine treats a single-variant failure as recoverable:
// the affected subtotal is reported as zero with a low-confidence
// annotation rather than failing the whole record.
type LedgerError struct {
	// Variant names the transaction class whose read failed.
	Variant domain.LedgerVariant

	// Operation describes the read that was being performed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for LedgerError.
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error: variant=%s, operation=%s, err=%v", e.Variant, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error { return e.Err }

// NewLedgerError creates a LedgerError for the given variant read.
func NewLedgerError(variant domain.LedgerVariant, operation string, err error) *LedgerError {
	return &LedgerError{Variant: variant, Operation: operation, Err: err}
}

// StoreError reports a failed configuration-store operation, naming the
// entity and operation so administrative failures are reported verbatim
// to the caller.
type StoreError struct {
	// Entity is the reference entity involved (committee, keyword,
	// transaction type, override).
	Entity string

	// Operation is the store operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: entity=%s, operation=%s, err=%v", e.Entity, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a StoreError with the given details.
func NewStoreError(entity, operation string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Err: err}
}
