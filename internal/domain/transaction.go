package domain

import "github.com/shopspring/decimal"

// MemoSubEntry is the memo code marking a ledger row as a sub-entry of
// another, already-counted transaction. Sub-entries double-report their
// parent and must be excluded from every sum.
const MemoSubEntry = "X"

// ExpenditureDirection is the support/oppose indicator on an
// independent expenditure. Direction always comes from the indicator;
// row amounts are non-negative and their sign carries no meaning.
type ExpenditureDirection string

const (
	// DirectionSupport marks spending advocating for the candidate.
	DirectionSupport ExpenditureDirection = "support"

	// DirectionOppose marks spending advocating against the candidate.
	DirectionOppose ExpenditureDirection = "oppose"
)

// Valid reports whether the direction is a known indicator value.
func (d ExpenditureDirection) Valid() bool {
	return d == DirectionSupport || d == DirectionOppose
}

// LedgerVariant names one of the four transaction classes the ledger
// accessor reads. Degraded score records carry the variants whose reads
// failed.
type LedgerVariant string

const (
	// VariantDirect covers committee-to-candidate contributions.
	VariantDirect LedgerVariant = "direct"

	// VariantTransfer covers committee-to-committee transfers and
	// operating expenditures.
	VariantTransfer LedgerVariant = "transfer"

	// VariantExpenditure covers independent expenditures for or against
	// a candidate.
	VariantExpenditure LedgerVariant = "independent_expenditure"

	// VariantConduit covers individual contributions routed through a
	// configured committee into a candidate.
	VariantConduit LedgerVariant = "conduit"
)

// Variants lists every ledger variant in a fixed order.
func Variants() []LedgerVariant {
	return []LedgerVariant{VariantDirect, VariantTransfer, VariantExpenditure, VariantConduit}
}

// Contribution is a direct committee-to-candidate contribution row.
type Contribution struct {
	CommitteeID string          `json:"committee_id"`
	CandidateID string          `json:"candidate_id"`
	Amount      decimal.Decimal `json:"amount"`
	Cycle       int             `json:"cycle"`

	// TypeCode is the regulatory transaction-type code, used to exclude
	// rows whose purpose is classified as not pro-Israel.
	TypeCode string `json:"type_code,omitempty"`

	// MemoCode carries MemoSubEntry when the row re-reports part of an
	// already-counted parent transaction.
	MemoCode string `json:"memo_code,omitempty"`
}

// Transfer is a committee-to-committee transfer or operating
// expenditure row, filtered by allow-list membership on the outgoing
// side.
type Transfer struct {
	FromCommitteeID string          `json:"from_committee_id"`
	ToCommitteeID   string          `json:"to_committee_id"`
	Amount          decimal.Decimal `json:"amount"`
	Cycle           int             `json:"cycle"`
	TypeCode        string          `json:"type_code,omitempty"`
}

// IndependentExpenditure is uncoordinated committee spending for or
// against a candidate.
type IndependentExpenditure struct {
	CommitteeID string               `json:"committee_id"`
	CandidateID string               `json:"candidate_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Cycle       int                  `json:"cycle"`
	Direction   ExpenditureDirection `json:"direction"`
}

// ConduitContribution is an individual's contribution routed through a
// configured committee into a candidate, attributed to the committee
// rather than the individual.
type ConduitContribution struct {
	ConduitCommitteeID string          `json:"conduit_committee_id"`
	CandidateID        string          `json:"candidate_id"`
	Amount             decimal.Decimal `json:"amount"`
	Cycle              int             `json:"cycle"`
	MemoCode           string          `json:"memo_code,omitempty"`
}
