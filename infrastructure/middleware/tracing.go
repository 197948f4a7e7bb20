package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obedier/fundscore/internal/application"
	"github.com/obedier/fundscore/internal/domain"
)

var _ application.Service = (*TracingService)(nil)

// TracingService wraps the score engine with OpenTelemetry spans. It
// records the cycle selection on every span and emits events when a
// record is degraded or low confidence, so partial data is visible in
// traces as well as in the records themselves.
type TracingService struct {
	next   application.Service
	tracer trace.Tracer
}

// NewTracingService decorates a score service with tracing.
func NewTracingService(next application.Service) *TracingService {
	return &TracingService{
		next:   next,
		tracer: otel.Tracer("fundscore-engine"),
	}
}

// GetScore implements application.Service.
func (t *TracingService) GetScore(ctx context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreRecord, error) {
	ctx, span := t.tracer.Start(ctx, "Engine.GetScore")
	defer span.End()
	span.SetAttributes(
		attribute.String("score.person_id", personID),
		attribute.String("score.cycles", cycles.String()),
	)

	rec, err := t.next.GetScore(ctx, personID, cycles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("score.raw", rec.RawScore),
		attribute.Float64("score.curved", rec.CurvedScore),
		attribute.String("score.category", rec.Category),
	)
	if rec.LowConfidence {
		span.AddEvent("score.low_confidence", trace.WithAttributes(
			attribute.Int("score.degraded_variants", len(rec.DegradedVariants)),
		))
	}
	if rec.Override != nil {
		span.AddEvent("score.override_applied", trace.WithAttributes(
			attribute.String("score.override_author", rec.Override.CreatedBy),
		))
	}
	span.SetStatus(codes.Ok, "")
	return rec, nil
}

// GetOverview implements application.Service.
func (t *TracingService) GetOverview(ctx context.Context, cycles domain.CycleSelector) (*application.Overview, error) {
	ctx, span := t.tracer.Start(ctx, "Engine.GetOverview")
	defer span.End()
	span.SetAttributes(attribute.String("score.cycles", cycles.String()))

	overview, err := t.next.GetOverview(ctx, cycles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("score.candidates", overview.Totals.Candidates),
		attribute.Int("score.degraded", overview.Totals.Degraded),
	)
	if len(overview.Skipped) > 0 {
		span.AddEvent("score.candidates_skipped", trace.WithAttributes(
			attribute.Int("score.skipped", len(overview.Skipped)),
		))
	}
	span.SetStatus(codes.Ok, "")
	return overview, nil
}

// GetTotals implements application.Service.
func (t *TracingService) GetTotals(ctx context.Context, cycles domain.CycleSelector) (*application.Totals, error) {
	ctx, span := t.tracer.Start(ctx, "Engine.GetTotals")
	defer span.End()
	span.SetAttributes(attribute.String("score.cycles", cycles.String()))

	totals, err := t.next.GetTotals(ctx, cycles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("score.candidates", totals.Candidates))
	span.SetStatus(codes.Ok, "")
	return totals, nil
}
