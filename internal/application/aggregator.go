// Package application composes the aggregation engine, scoring engine,
// and summary builder behind the engine facade that exposes the public
// score operations.
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// Aggregator joins ledger reads against the active committee set and
// produces the five per-category subtotals for one candidate and cycle
// set. It owns no state; every call is a pure function of the ledger
// and configuration snapshots.
//
// Membership is committee-identity-at-query-time: a committee
// deactivated after a transaction date no longer contributes that
// transaction to new aggregations, and the activity window is never
// time-sliced.
type Aggregator struct {
	ledger ports.LedgerReader
}

// NewAggregator creates an aggregator over the given ledger accessor.
func NewAggregator(ledger ports.LedgerReader) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// Aggregation is the result of one subtotal computation, including the
// variants whose reads failed and were reported as zero.
type Aggregation struct {
	Subtotals domain.Subtotals

	// Degraded names the ledger variants that failed. Callers must
	// annotate the resulting record as low confidence when non-empty.
	Degraded []domain.LedgerVariant
}

// Aggregate computes the subtotals for one person across the selected
// cycles. The candidateIDs set carries the person's cycle-scoped
// filing IDs and must be non-empty; ledger rows are keyed by those,
// not by the person ID. The four variant reads fan out concurrently; a
// failed variant zeroes its subtotal and is reported in Degraded, and
// only the failure of every variant escalates to ErrLedgerUnavailable.
// Context cancellation aborts in-flight reads and surfaces ErrTimeout
// when the deadline expired.
//
// Multi-cycle selectors sum per-cycle subtotals independently per
// candidate; amounts are decimal-exact so summation order is
// irrelevant.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	committees []domain.Committee,
	types domain.TypeFilter,
	candidateIDs []string,
	cycles domain.CycleSelector,
) (Aggregation, error) {
	committeeIDs := committeeIDSet(committees)

	var (
		direct   []domain.Contribution
		transfer []domain.Transfer
		expend   []domain.IndependentExpenditure
		conduit  []domain.ConduitContribution
	)
	failures := make([]error, len(domain.Variants()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.ledger.DirectContributions(gctx, committeeIDs, candidateIDs, cycles)
		if err != nil {
			return a.recordFailure(gctx, failures, 0, domain.VariantDirect, "DirectContributions", err)
		}
		direct = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.ledger.CommitteeTransfers(gctx, committeeIDs, cycles)
		if err != nil {
			return a.recordFailure(gctx, failures, 1, domain.VariantTransfer, "CommitteeTransfers", err)
		}
		transfer = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.ledger.IndependentExpenditures(gctx, committeeIDs, candidateIDs, cycles)
		if err != nil {
			return a.recordFailure(gctx, failures, 2, domain.VariantExpenditure, "IndependentExpenditures", err)
		}
		expend = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.ledger.ConduitContributions(gctx, committeeIDs, candidateIDs, cycles)
		if err != nil {
			return a.recordFailure(gctx, failures, 3, domain.VariantConduit, "ConduitContributions", err)
		}
		conduit = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		// Only context errors abort the group; variant failures degrade.
		if errors.Is(err, context.DeadlineExceeded) {
			return Aggregation{}, fmt.Errorf("aggregate %s: %w", strings.Join(candidateIDs, ","), ports.ErrTimeout)
		}
		return Aggregation{}, err
	}

	var degraded []domain.LedgerVariant
	for i, variant := range domain.Variants() {
		if failures[i] != nil {
			degraded = append(degraded, variant)
		}
	}
	if len(degraded) == len(domain.Variants()) {
		return Aggregation{}, fmt.Errorf("aggregate %s: %w", strings.Join(candidateIDs, ","), ports.ErrLedgerUnavailable)
	}

	membership := make(map[string]struct{}, len(committeeIDs))
	for _, id := range committeeIDs {
		membership[id] = struct{}{}
	}

	var sub domain.Subtotals
	for _, row := range direct {
		if _, ok := membership[row.CommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesDirect(row, types) {
			continue
		}
		sub.DirectSupport = sub.DirectSupport.Add(row.Amount)
	}
	for _, row := range transfer {
		if _, ok := membership[row.FromCommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesTransfer(row) {
			continue
		}
		sub.CommitteeOut = sub.CommitteeOut.Add(row.Amount)
	}
	for _, row := range expend {
		if _, ok := membership[row.CommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesExpenditure(row) {
			continue
		}
		switch row.Direction {
		case domain.DirectionSupport:
			sub.IESupport = sub.IESupport.Add(row.Amount)
		case domain.DirectionOppose:
			sub.IEOpposition = sub.IEOpposition.Add(row.Amount)
		}
	}
	for _, row := range conduit {
		if _, ok := membership[row.ConduitCommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesConduit(row) {
			continue
		}
		sub.Bundled = sub.Bundled.Add(row.Amount)
	}

	return Aggregation{Subtotals: sub, Degraded: degraded}, nil
}

// recordFailure stores a variant failure for degraded reporting unless
// the context was cancelled, in which case the whole aggregation
// aborts.
func (a *Aggregator) recordFailure(
	ctx context.Context,
	failures []error,
	slot int,
	variant domain.LedgerVariant,
	operation string,
	err error,
) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	failures[slot] = ports.NewLedgerError(variant, operation, err)
	return nil
}

// CommitteeTotals tallies qualifying amounts per committee across every
// candidate, for the top-committee summary views. Opposition spending
// counts negatively so a committee's total reflects its net direction.
func (a *Aggregator) CommitteeTotals(
	ctx context.Context,
	committees []domain.Committee,
	types domain.TypeFilter,
	cycles domain.CycleSelector,
) (map[string]decimal.Decimal, error) {
	committeeIDs := committeeIDSet(committees)
	totals := make(map[string]decimal.Decimal, len(committeeIDs))
	for _, id := range committeeIDs {
		totals[id] = decimal.Zero
	}

	direct, err := a.ledger.DirectContributions(ctx, committeeIDs, nil, cycles)
	if err != nil {
		return nil, ports.NewLedgerError(domain.VariantDirect, "DirectContributions", err)
	}
	for _, row := range direct {
		if _, ok := totals[row.CommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesDirect(row, types) {
			continue
		}
		totals[row.CommitteeID] = totals[row.CommitteeID].Add(row.Amount)
	}

	expend, err := a.ledger.IndependentExpenditures(ctx, committeeIDs, nil, cycles)
	if err != nil {
		return nil, ports.NewLedgerError(domain.VariantExpenditure, "IndependentExpenditures", err)
	}
	for _, row := range expend {
		if _, ok := totals[row.CommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesExpenditure(row) {
			continue
		}
		if row.Direction == domain.DirectionOppose {
			totals[row.CommitteeID] = totals[row.CommitteeID].Sub(row.Amount)
			continue
		}
		totals[row.CommitteeID] = totals[row.CommitteeID].Add(row.Amount)
	}

	conduit, err := a.ledger.ConduitContributions(ctx, committeeIDs, nil, cycles)
	if err != nil {
		return nil, ports.NewLedgerError(domain.VariantConduit, "ConduitContributions", err)
	}
	for _, row := range conduit {
		if _, ok := totals[row.ConduitCommitteeID]; !ok {
			continue
		}
		if !domain.QualifiesConduit(row) {
			continue
		}
		totals[row.ConduitCommitteeID] = totals[row.ConduitCommitteeID].Add(row.Amount)
	}

	return totals, nil
}

// committeeIDSet extracts the sorted unique external IDs from the
// active committee rows. Sorting keeps query plans and cache keys
// stable between runs.
func committeeIDSet(committees []domain.Committee) []string {
	seen := make(map[string]struct{}, len(committees))
	ids := make([]string, 0, len(committees))
	for _, c := range committees {
		if _, dup := seen[c.CommitteeID]; dup {
			continue
		}
		seen[c.CommitteeID] = struct{}{}
		ids = append(ids, c.CommitteeID)
	}
	sort.Strings(ids)
	return ids
}
