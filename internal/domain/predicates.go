package domain

// Qualification predicates name the inclusion and exclusion rules the
// aggregation engine applies to ledger rows. Keeping them here, out of
// the storage layer, lets each rule be unit-tested without a database
// and keeps the SQL accessor free of business logic.

// TypeFilter resolves ambiguous transaction-type codes. It excludes
// rows whose code is actively classified as not pro-Israel; rows with
// unknown or unclassified codes pass through.
type TypeFilter struct {
	excluded map[string]struct{}
}

// NewTypeFilter builds a filter from the active transaction-type
// classification. Only active rows participate; inactive
// classifications are ignored the same way inactive committees are.
func NewTypeFilter(types []TransactionType) TypeFilter {
	excluded := make(map[string]struct{})
	for _, t := range types {
		if t.Active && !t.ProIsrael {
			excluded[t.Code] = struct{}{}
		}
	}
	return TypeFilter{excluded: excluded}
}

// Allows reports whether rows carrying the given transaction-type code
// may count toward support subtotals.
func (f TypeFilter) Allows(code string) bool {
	if code == "" {
		return true
	}
	_, blocked := f.excluded[code]
	return !blocked
}

// QualifiesDirect reports whether a direct contribution row counts
// toward the direct-support subtotal: positive amount, not a memoed
// sub-entry, and a transaction type not classified against support.
func QualifiesDirect(c Contribution, types TypeFilter) bool {
	if !c.Amount.IsPositive() {
		return false
	}
	if c.MemoCode == MemoSubEntry {
		return false
	}
	return types.Allows(c.TypeCode)
}

// QualifiesTransfer reports whether a committee-to-committee transfer
// row counts toward the committee-out subtotal.
func QualifiesTransfer(t Transfer) bool {
	return t.Amount.IsPositive()
}

// QualifiesExpenditure reports whether an independent-expenditure row
// counts toward a support or opposition subtotal. Row amounts are
// non-negative; a zero amount or unknown indicator contributes nothing.
func QualifiesExpenditure(e IndependentExpenditure) bool {
	if !e.Amount.IsPositive() {
		return false
	}
	return e.Direction.Valid()
}

// QualifiesConduit reports whether a bundled/conduit contribution row
// counts toward the bundled subtotal. Memoed sub-entries are excluded
// here for the same double-counting reason as direct contributions.
func QualifiesConduit(c ConduitContribution) bool {
	if !c.Amount.IsPositive() {
		return false
	}
	return c.MemoCode != MemoSubEntry
}
