package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

var _ ports.LedgerReader = (*rateLimitedLedger)(nil)

// rateLimitedLedger paces ledger reads with a token bucket so bulk
// summaries cannot overwhelm the underlying store's connection pool.
type rateLimitedLedger struct {
	next    ports.LedgerReader
	limiter *rate.Limiter
}

// RateLimitLedger wraps a ledger reader with a token bucket. The limit
// parameter sets sustained reads per second; burst allows temporary
// spikes above the sustained rate.
func RateLimitLedger(next ports.LedgerReader, limit rate.Limit, burst int) ports.LedgerReader {
	return &rateLimitedLedger{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// wait blocks until a token is available or the context ends.
func (r *rateLimitedLedger) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// DirectContributions implements ports.LedgerReader.
func (r *rateLimitedLedger) DirectContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.Contribution, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.DirectContributions(ctx, committeeIDs, candidateIDs, cycles)
}

// CommitteeTransfers implements ports.LedgerReader.
func (r *rateLimitedLedger) CommitteeTransfers(ctx context.Context, committeeIDs []string, cycles domain.CycleSelector) ([]domain.Transfer, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CommitteeTransfers(ctx, committeeIDs, cycles)
}

// IndependentExpenditures implements ports.LedgerReader.
func (r *rateLimitedLedger) IndependentExpenditures(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.IndependentExpenditure, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.IndependentExpenditures(ctx, committeeIDs, candidateIDs, cycles)
}

// ConduitContributions implements ports.LedgerReader.
func (r *rateLimitedLedger) ConduitContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.ConduitContribution, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ConduitContributions(ctx, committeeIDs, candidateIDs, cycles)
}
