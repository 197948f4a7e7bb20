package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// Service is the engine's public surface, consumed by the presentation
// layer and wrapped by observability decorators.
type Service interface {
	// GetScore computes the score record for one candidate over the
	// selected cycles. Unknown candidates fail with ErrNotFound,
	// distinguishable from a zero score.
	GetScore(ctx context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreRecord, error)

	// GetOverview computes per-candidate scores and the global
	// cross-candidate view for the selected cycles.
	GetOverview(ctx context.Context, cycles domain.CycleSelector) (*Overview, error)

	// GetTotals computes only the cross-candidate totals.
	GetTotals(ctx context.Context, cycles domain.CycleSelector) (*Totals, error)
}

var _ Service = (*Engine)(nil)

// Engine composes the configuration store, ledger accessor,
// aggregation engine, scoring engine, and summary builder into the
// three public operations. It is read-mostly and stateless per
// request: every score computation is an independent pure function of
// the configuration and ledger snapshots, so candidates are scored in
// parallel under a bounded concurrency budget.
type Engine struct {
	config     ports.ConfigStore
	candidates ports.CandidateReader
	overrides  ports.OverrideStore
	aggregator *Aggregator
	scorer     *Scorer
	metrics    ports.MetricsCollector

	concurrency int
	timeout     time.Duration
	topN        int
}

// EngineOption customizes optional engine collaborators.
type EngineOption func(*Engine)

// WithOverrides attaches the auditable override store. Without it,
// records are always purely computed.
func WithOverrides(store ports.OverrideStore) EngineOption {
	return func(e *Engine) { e.overrides = store }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine wires an engine from its collaborators and validated
// configuration.
func NewEngine(
	cfg Config,
	config ports.ConfigStore,
	ledger ports.LedgerReader,
	candidates ports.CandidateReader,
	opts ...EngineOption,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := cfg.BuildScorer()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		config:      config,
		candidates:  candidates,
		aggregator:  NewAggregator(ledger),
		scorer:      scorer,
		concurrency: cfg.Concurrency,
		timeout:     cfg.RequestTimeout,
		topN:        cfg.TopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// GetScore implements Service.
func (e *Engine) GetScore(ctx context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreRecord, error) {
	if personID == "" {
		verr := domain.NewValidationError("score request")
		verr.AddError("person id is required")
		return nil, verr
	}
	if err := cycles.Validate(); err != nil {
		verr := domain.NewValidationError("score request")
		verr.AddError(err.Error())
		return nil, verr
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	started := time.Now()

	candidate, err := e.candidates.Candidate(ctx, personID)
	if err != nil {
		return nil, e.mapErr(err, "candidate lookup")
	}

	committees, types, err := e.snapshot(ctx)
	if err != nil {
		return nil, e.mapErr(err, "configuration snapshot")
	}

	rec, err := e.computeScore(ctx, candidate, committees, types, cycles, nil)
	if err != nil {
		return nil, err
	}

	if e.overrides != nil {
		override, err := e.overrides.OverrideFor(ctx, personID, cycles)
		if err != nil {
			return nil, e.mapErr(err, "override lookup")
		}
		if override != nil {
			rec.Override = override
			rec.LowConfidence = true
		}
	}

	e.observe("get_score", started, rec.LowConfidence)
	return rec, nil
}

// GetOverview implements Service. Candidates are scored as an
// embarrassingly-parallel map under the concurrency budget; a
// candidate whose computation fails entirely is skipped and named in
// the overview rather than failing the bulk request.
func (e *Engine) GetOverview(ctx context.Context, cycles domain.CycleSelector) (*Overview, error) {
	if err := cycles.Validate(); err != nil {
		verr := domain.NewValidationError("overview request")
		verr.AddError(err.Error())
		return nil, verr
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	started := time.Now()

	cohort, err := e.candidates.Candidates(ctx, cycles)
	if err != nil {
		return nil, e.mapErr(err, "candidate listing")
	}
	committees, types, err := e.snapshot(ctx)
	if err != nil {
		return nil, e.mapErr(err, "configuration snapshot")
	}

	records, skipped, err := e.scoreCohort(ctx, cohort, committees, types, cycles)
	if err != nil {
		return nil, err
	}

	committeeTotals, err := e.aggregator.CommitteeTotals(ctx, committees, types, cycles)
	if err != nil {
		// Committee rankings are context, not core scores; degrade to an
		// empty ranking rather than failing the overview.
		committeeTotals = map[string]decimal.Decimal{}
	}

	byID := make(map[string]domain.Candidate, len(cohort))
	var universe []int
	for _, c := range cohort {
		byID[c.PersonID] = c
		universe = append(universe, c.CycleYears()...)
	}
	overview := BuildOverview(byID, records, committeeTotals, cycles.Resolve(universe), e.topN)
	overview.Skipped = skipped

	e.observe("get_overview", started, len(skipped) > 0)
	return &overview, nil
}

// GetTotals implements Service.
func (e *Engine) GetTotals(ctx context.Context, cycles domain.CycleSelector) (*Totals, error) {
	if err := cycles.Validate(); err != nil {
		verr := domain.NewValidationError("totals request")
		verr.AddError(err.Error())
		return nil, verr
	}

	ctx, cancel := e.withDeadline(ctx)
	defer cancel()
	started := time.Now()

	cohort, err := e.candidates.Candidates(ctx, cycles)
	if err != nil {
		return nil, e.mapErr(err, "candidate listing")
	}
	committees, types, err := e.snapshot(ctx)
	if err != nil {
		return nil, e.mapErr(err, "configuration snapshot")
	}

	records, _, err := e.scoreCohort(ctx, cohort, committees, types, cycles)
	if err != nil {
		return nil, err
	}

	totals := BuildTotals(records)
	e.observe("get_totals", started, totals.Degraded > 0)
	return &totals, nil
}

// computeScore aggregates and scores one candidate. The population
// carries cohort raw scores for rank-based curves and is nil for
// single-candidate queries.
func (e *Engine) computeScore(
	ctx context.Context,
	candidate domain.Candidate,
	committees []domain.Committee,
	types domain.TypeFilter,
	cycles domain.CycleSelector,
	population []float64,
) (*domain.ScoreRecord, error) {
	resolved := cycles.Resolve(candidate.CycleYears())

	// Ledger rows are keyed by the cycle-scoped filing IDs, so the
	// person is translated to that ID set before any ledger read. No
	// filings in the selected cycles means no ledger activity; an empty
	// set must not reach the ledger, where it would match every
	// candidate.
	var agg Aggregation
	if candidateIDs := candidate.CandidateIDs(cycles); len(candidateIDs) > 0 {
		var err error
		agg, err = e.aggregator.Aggregate(ctx, committees, types, candidateIDs, cycles)
		if err != nil {
			return nil, err
		}
	}
	receipts, err := e.candidates.TotalReceipts(ctx, candidate.PersonID, cycles)
	if err != nil {
		// Missing receipts degrade to the fallback tier; they never
		// fail the record.
		receipts = decimal.Zero
	}

	rec := &domain.ScoreRecord{
		PersonID:         candidate.PersonID,
		Cycles:           resolved,
		Subtotals:        agg.Subtotals,
		TotalReceipts:    receipts,
		State:            domain.StateNoData,
		DegradedVariants: agg.Degraded,
		LowConfidence:    len(agg.Degraded) > 0,
	}
	e.scorer.Score(rec, population)
	return rec, nil
}

// scoreCohort maps computeScore over the cohort in parallel. For
// rank-based curves the raw population is computed first so every
// record curves against the same cohort deterministically.
func (e *Engine) scoreCohort(
	ctx context.Context,
	cohort []domain.Candidate,
	committees []domain.Committee,
	types domain.TypeFilter,
	cycles domain.CycleSelector,
) ([]domain.ScoreRecord, []string, error) {
	results := make([]*domain.ScoreRecord, len(cohort))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, candidate := range cohort {
		g.Go(func() error {
			rec, err := e.computeScore(gctx, candidate, committees, types, cycles, nil)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// Full failure for one candidate skips that candidate;
				// the overview names it instead of aborting the bulk
				// request.
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("score cohort: %w", ports.ErrTimeout)
		}
		return nil, nil, err
	}

	// Re-curve against the cohort population so rank-based curves see
	// every raw score. Population-free curves are unaffected.
	population := make([]float64, 0, len(cohort))
	for _, rec := range results {
		if rec != nil {
			population = append(population, rec.RawScore)
		}
	}

	records := make([]domain.ScoreRecord, 0, len(cohort))
	var skipped []string
	for i, rec := range results {
		if rec == nil {
			skipped = append(skipped, cohort[i].PersonID)
			continue
		}
		e.scorer.Score(rec, population)
		if e.overrides != nil {
			override, err := e.overrides.OverrideFor(ctx, rec.PersonID, cycles)
			switch {
			case err != nil:
				// The record may be missing an override that exists, so
				// it is no longer authoritative.
				rec.LowConfidence = true
			case override != nil:
				rec.Override = override
				rec.LowConfidence = true
			}
		}
		records = append(records, *rec)
	}
	return records, skipped, nil
}

// snapshot reads the active committee set and transaction-type filter
// once per request so every candidate in the request sees the same
// configuration.
func (e *Engine) snapshot(ctx context.Context) ([]domain.Committee, domain.TypeFilter, error) {
	committees, err := e.config.ListActiveCommittees(ctx, "")
	if err != nil {
		return nil, domain.TypeFilter{}, err
	}
	types, err := e.config.ListActiveTransactionTypes(ctx)
	if err != nil {
		return nil, domain.TypeFilter{}, err
	}
	return committees, domain.NewTypeFilter(types), nil
}

// withDeadline applies the configured per-request timeout when the
// caller did not already supply a deadline.
func (e *Engine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// mapErr normalizes collaborator errors into the engine taxonomy.
func (e *Engine) mapErr(err error, operation string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", operation, ports.ErrTimeout)
	case errors.Is(err, ports.ErrNotFound):
		return err
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// observe records operation latency and degradation counters when a
// collector is attached.
func (e *Engine) observe(operation string, started time.Time, degraded bool) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{"operation": operation}
	e.metrics.RecordLatency(operation, time.Since(started), labels)
	e.metrics.RecordCounter("score_operations_total", 1, labels)
	if degraded {
		e.metrics.RecordCounter("score_operations_degraded_total", 1, labels)
	}
}
