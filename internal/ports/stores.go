// Package ports defines the interfaces the scoring engine consumes
// from its collaborators, together with the infrastructure error
// taxonomy. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obedier/fundscore/internal/domain"
)

// ConfigStore is the read side of the configuration store: the
// committee allow-list, keyword allow-list, and transaction-type
// classification. Reads never fail for an empty result; they return an
// empty slice.
type ConfigStore interface {
	// ListActiveCommittees returns the active committee references,
	// optionally restricted to one category (empty category means all).
	// Duplicate rows for one external ID are resolved by preferring the
	// most recently created active row, so the result carries at most
	// one row per external ID.
	ListActiveCommittees(ctx context.Context, category domain.CommitteeCategory) ([]domain.Committee, error)

	// ListActiveKeywords returns the active keyword references.
	ListActiveKeywords(ctx context.Context) ([]domain.Keyword, error)

	// ListActiveTransactionTypes returns the active transaction-type
	// classification rows.
	ListActiveTransactionTypes(ctx context.Context) ([]domain.TransactionType, error)
}

// CommitteeUpdate carries a partial-field committee mutation. Only
// non-nil fields change.
type CommitteeUpdate struct {
	Category *domain.CommitteeCategory
	Active   *bool
}

// KeywordUpdate carries a partial-field keyword mutation.
type KeywordUpdate struct {
	Term        *string
	Category    *domain.CommitteeCategory
	Description *string
	Active      *bool
}

// TransactionTypeUpdate carries a partial-field transaction-type
// mutation.
type TransactionTypeUpdate struct {
	Name      *string
	ProIsrael *bool
	Active    *bool
}

// ConfigAdmin is the administrative write side of the configuration
// store. Writes validate before touching storage, never delete
// referenced rows, and return the full updated row. A write naming an
// unknown identifier fails with ErrNotFound.
type ConfigAdmin interface {
	// UpsertCommittee inserts a committee reference. Inserting an ID
	// that already has an active row creates a newer row that wins at
	// read time; the store tolerates the duplicate.
	UpsertCommittee(ctx context.Context, committeeID string, category domain.CommitteeCategory) (domain.Committee, error)

	// UpdateCommittee applies a partial update to the committee row
	// with the given surrogate key.
	UpdateCommittee(ctx context.Context, id int64, update CommitteeUpdate) (domain.Committee, error)

	// DeactivateCommittee soft-deletes the committee row. The row
	// remains for audit; new aggregations exclude it.
	DeactivateCommittee(ctx context.Context, id int64) (domain.Committee, error)

	// UpsertKeyword inserts a keyword reference.
	UpsertKeyword(ctx context.Context, term string, category domain.CommitteeCategory, description string) (domain.Keyword, error)

	// UpdateKeyword applies a partial update to a keyword row.
	UpdateKeyword(ctx context.Context, id int64, update KeywordUpdate) (domain.Keyword, error)

	// DeactivateKeyword soft-deletes a keyword row.
	DeactivateKeyword(ctx context.Context, id int64) (domain.Keyword, error)

	// UpsertTransactionType inserts a transaction-type classification.
	UpsertTransactionType(ctx context.Context, code, name string, proIsrael bool) (domain.TransactionType, error)

	// UpdateTransactionType applies a partial update to a
	// transaction-type row.
	UpdateTransactionType(ctx context.Context, id int64, update TransactionTypeUpdate) (domain.TransactionType, error)

	// DeactivateTransactionType soft-deletes a transaction-type row.
	DeactivateTransactionType(ctx context.Context, id int64) (domain.TransactionType, error)
}

// LedgerReader is the uniform read interface over the four transaction
// classes. Implementations perform membership and cycle filtering only;
// the qualification predicates in the domain package carry the business
// rules. Candidate filters take the cycle-scoped candidate IDs from a
// person's filings (Candidate.CandidateIDs), because ledger rows are
// keyed by filing ID, not person ID. An empty candidate-ID set matches
// every candidate, which the summary path uses for per-committee
// tallies.
type LedgerReader interface {
	// DirectContributions returns committee-to-candidate contribution
	// rows for the given committee set and cycles.
	DirectContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.Contribution, error)

	// CommitteeTransfers returns committee-to-committee transfer rows
	// originating from the given committee set.
	CommitteeTransfers(ctx context.Context, committeeIDs []string, cycles domain.CycleSelector) ([]domain.Transfer, error)

	// IndependentExpenditures returns independent-expenditure rows for
	// or against the candidates, funded by the given committee set.
	IndependentExpenditures(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.IndependentExpenditure, error)

	// ConduitContributions returns bundled contribution rows routed
	// through the given committee set into the candidates.
	ConduitContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.ConduitContribution, error)
}

// CandidateReader resolves person-level candidate identities and their
// cycle-level totals.
type CandidateReader interface {
	// Candidate returns the person-level identity with all filings.
	// Unknown person IDs fail with ErrNotFound.
	Candidate(ctx context.Context, personID string) (domain.Candidate, error)

	// Candidates returns every person with at least one filing in the
	// selected cycles. An empty result is valid.
	Candidates(ctx context.Context, cycles domain.CycleSelector) ([]domain.Candidate, error)

	// TotalReceipts returns the candidate's total campaign receipts
	// over the selected cycles. Missing totals return zero, which the
	// scoring engine treats as the low-confidence fallback case.
	TotalReceipts(ctx context.Context, personID string, cycles domain.CycleSelector) (decimal.Decimal, error)
}

// CommitteeDirectory exposes the ledger-side committee names the
// keyword matcher searches. It is administrative surface, never part of
// the scoring hot path.
type CommitteeDirectory interface {
	// CommitteeNames returns every known (committee ID, name) pair.
	CommitteeNames(ctx context.Context) ([]domain.CommitteeName, error)
}

// OverrideStore persists the auditable score overrides layered on top
// of computed records.
type OverrideStore interface {
	// OverrideFor returns the override covering the person and cycle
	// scope, or nil when none exists.
	OverrideFor(ctx context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreOverride, error)

	// SetOverride records an override. The reason and author are
	// required for the audit trail.
	SetOverride(ctx context.Context, override domain.ScoreOverride) (domain.ScoreOverride, error)

	// ClearOverride removes the override with the given surrogate key.
	ClearOverride(ctx context.Context, id int64) error
}

// MetricsCollector records operational metrics for the engine.
// Implementations integrate with Prometheus or other observability
// backends; a nil collector disables instrumentation.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}
