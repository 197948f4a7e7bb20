package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is a qualitative tag on a subtotal reflecting how directly
// the underlying data attributes money to the candidate.
type Confidence string

const (
	// ConfidenceHigh marks directly attributable data, such as itemized
	// committee-to-candidate contributions.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium marks indirectly attributable data, such as
	// independent expenditures naming the candidate.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow marks data that is inferred, degraded, or routed
	// through intermediaries.
	ConfidenceLow Confidence = "low"
)

// rank orders confidence levels for comparisons; higher is more direct.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// AtMost caps the confidence at the given ceiling. Indirect subtotals
// must never report higher confidence than direct ones; callers use
// AtMost to enforce that ordering.
func (c Confidence) AtMost(ceiling Confidence) Confidence {
	if c.rank() > ceiling.rank() {
		return ceiling
	}
	return c
}

// ScoreState tracks how far a score record has progressed through the
// scoring pipeline. States advance strictly forward; a record is only
// complete once categorized.
type ScoreState string

const (
	// StateNoData is the initial state before any subtotal exists.
	StateNoData ScoreState = "NO_DATA"

	// StateRawComputed means the normalized raw score has been derived
	// from the aggregation subtotals.
	StateRawComputed ScoreState = "RAW_COMPUTED"

	// StateCurved means the raw score has been mapped through the curve
	// policy into the public-facing range.
	StateCurved ScoreState = "CURVED"

	// StateCategorized means the curved score has been assigned its
	// category band. Terminal state.
	StateCategorized ScoreState = "CATEGORIZED"
)

// Subtotals holds the five per-category sums the aggregation engine
// produces for one candidate over one cycle set. All amounts are
// decimal-exact; summation order never affects the result.
type Subtotals struct {
	// DirectSupport sums qualifying committee-to-candidate
	// contributions from active committees.
	DirectSupport decimal.Decimal `json:"direct_support"`

	// IESupport sums independent-expenditure amounts marked support.
	IESupport decimal.Decimal `json:"ie_support"`

	// IEOpposition sums independent-expenditure amounts marked oppose.
	IEOpposition decimal.Decimal `json:"ie_opposition"`

	// Bundled sums conduit contributions attributed to configured
	// committees.
	Bundled decimal.Decimal `json:"bundled"`

	// CommitteeOut sums committee-to-committee transfers originating
	// from active committees. Context only; it never enters Net.
	CommitteeOut decimal.Decimal `json:"committee_out"`
}

// Net returns the net pro-Israel contribution:
// direct_support + bundled + ie_support - ie_opposition.
func (s Subtotals) Net() decimal.Decimal {
	return s.DirectSupport.Add(s.Bundled).Add(s.IESupport).Sub(s.IEOpposition)
}

// Add returns the element-wise sum of two subtotal sets. Multi-cycle
// aggregation folds per-cycle subtotals together with Add.
func (s Subtotals) Add(o Subtotals) Subtotals {
	return Subtotals{
		DirectSupport: s.DirectSupport.Add(o.DirectSupport),
		IESupport:     s.IESupport.Add(o.IESupport),
		IEOpposition:  s.IEOpposition.Add(o.IEOpposition),
		Bundled:       s.Bundled.Add(o.Bundled),
		CommitteeOut:  s.CommitteeOut.Add(o.CommitteeOut),
	}
}

// IsZero reports whether every subtotal is zero.
func (s Subtotals) IsZero() bool {
	return s.DirectSupport.IsZero() && s.IESupport.IsZero() &&
		s.IEOpposition.IsZero() && s.Bundled.IsZero() && s.CommitteeOut.IsZero()
}

// SubtotalConfidence carries the per-category confidence tags attached
// to a score record. Independent-expenditure and bundled confidence are
// capped at the direct confidence.
type SubtotalConfidence struct {
	Direct                 Confidence `json:"direct"`
	IndependentExpenditure Confidence `json:"independent_expenditure"`
	Bundled                Confidence `json:"bundled"`
}

// ScoreOverride is an explicit, auditable administrative override
// layered on top of a computed score record. The computation itself is
// never mutated; a record carrying an override exposes both values.
type ScoreOverride struct {
	ID          int64     `json:"id"`
	PersonID    string    `json:"person_id"`
	CycleScope  string    `json:"cycle_scope"`
	Score       float64   `json:"score"`
	Category    string    `json:"category"`
	Reason      string    `json:"reason"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoreRecord is the derived score view for one candidate over one
// cycle set. It is a pure function of the configuration snapshot and
// ledger snapshot at query time, never a stored fact.
type ScoreRecord struct {
	PersonID string `json:"person_id"`

	// Cycles is the resolved, ascending cycle list the record covers.
	Cycles []int `json:"cycles"`

	// Subtotals holds the constituent per-category sums.
	Subtotals Subtotals `json:"subtotals"`

	// Net is Subtotals.Net, materialized for consumers.
	Net decimal.Decimal `json:"net"`

	// TotalReceipts is the candidate's total receipts over the same
	// cycles, the normalization denominator.
	TotalReceipts decimal.Decimal `json:"total_receipts"`

	// RawScore is the receipts-normalized score on [0, max].
	RawScore float64 `json:"raw_score"`

	// CurvedScore is the public-facing score after the curve policy.
	CurvedScore float64 `json:"curved_score"`

	// Category is the band label assigned to the curved score.
	Category string `json:"category"`

	// State reports how far the scoring pipeline progressed.
	State ScoreState `json:"state"`

	// Confidence tags each subtotal category.
	Confidence SubtotalConfidence `json:"confidence"`

	// LowConfidence flags records whose computation degraded: missing
	// receipts, failed variant reads, or override application. A
	// low-confidence zero is visibly different from an authoritative
	// zero.
	LowConfidence bool `json:"low_confidence"`

	// DegradedVariants names the ledger variants whose reads failed and
	// were reported as zero. Empty for fully computed records.
	DegradedVariants []LedgerVariant `json:"degraded_variants,omitempty"`

	// Override, when present, supersedes CurvedScore and Category for
	// presentation while both computed values remain on the record.
	Override *ScoreOverride `json:"override,omitempty"`
}

// EffectiveScore returns the score consumers should present: the
// override when one exists, otherwise the curved score.
func (r ScoreRecord) EffectiveScore() float64 {
	if r.Override != nil {
		return r.Override.Score
	}
	return r.CurvedScore
}

// EffectiveCategory returns the category consumers should present,
// honoring any override.
func (r ScoreRecord) EffectiveCategory() string {
	if r.Override != nil && r.Override.Category != "" {
		return r.Override.Category
	}
	return r.Category
}
