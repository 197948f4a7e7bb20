package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obedier/fundscore/internal/application"
	"github.com/obedier/fundscore/internal/domain"
)

// stubService records the last call and returns canned results, so
// tests can verify the tracing decorator delegates transparently.
type stubService struct {
	lastOperation string
	record        *domain.ScoreRecord
	overview      *application.Overview
	totals        *application.Totals
	err           error
}

func (s *stubService) GetScore(_ context.Context, personID string, _ domain.CycleSelector) (*domain.ScoreRecord, error) {
	s.lastOperation = "get_score"
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubService) GetOverview(_ context.Context, _ domain.CycleSelector) (*application.Overview, error) {
	s.lastOperation = "get_overview"
	if s.err != nil {
		return nil, s.err
	}
	return s.overview, nil
}

func (s *stubService) GetTotals(_ context.Context, _ domain.CycleSelector) (*application.Totals, error) {
	s.lastOperation = "get_totals"
	if s.err != nil {
		return nil, s.err
	}
	return s.totals, nil
}

// TestTracingServiceDelegates verifies that all three operations pass
// through to the wrapped service and return its results unchanged.
func TestTracingServiceDelegates(t *testing.T) {
	stub := &stubService{
		record: &domain.ScoreRecord{
			PersonID:      "P001",
			RawScore:      2.5,
			CurvedScore:   2.5,
			Category:      "Neutral",
			LowConfidence: true,
			Override:      &domain.ScoreOverride{CreatedBy: "analyst"},
		},
		overview: &application.Overview{
			Totals:  application.Totals{Candidates: 3, Degraded: 1},
			Skipped: []string{"P099"},
		},
		totals: &application.Totals{Candidates: 3},
	}
	svc := NewTracingService(stub)
	ctx := context.Background()
	cycles := domain.Cycles(2024)

	rec, err := svc.GetScore(ctx, "P001", cycles)
	require.NoError(t, err)
	assert.Equal(t, stub.record, rec)
	assert.Equal(t, "get_score", stub.lastOperation)

	overview, err := svc.GetOverview(ctx, cycles)
	require.NoError(t, err)
	assert.Equal(t, stub.overview, overview)
	assert.Equal(t, "get_overview", stub.lastOperation)

	totals, err := svc.GetTotals(ctx, cycles)
	require.NoError(t, err)
	assert.Equal(t, stub.totals, totals)
	assert.Equal(t, "get_totals", stub.lastOperation)
}

// TestTracingServicePropagatesErrors verifies errors from the wrapped
// service surface unchanged.
func TestTracingServicePropagatesErrors(t *testing.T) {
	wantErr := errors.New("ledger offline")
	svc := NewTracingService(&stubService{err: wantErr})
	cycles := domain.AllCycles()

	_, err := svc.GetScore(context.Background(), "P001", cycles)
	assert.ErrorIs(t, err, wantErr)

	_, err = svc.GetOverview(context.Background(), cycles)
	assert.ErrorIs(t, err, wantErr)

	_, err = svc.GetTotals(context.Background(), cycles)
	assert.ErrorIs(t, err, wantErr)
}
