package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/obedier/fundscore/internal/domain"
)

// AmountTier maps a net amount floor to a raw score, used as the
// fallback normalization when a candidate reports no receipts.
type AmountTier struct {
	// MinNet is the inclusive net-amount floor for this tier, in whole
	// currency units.
	MinNet int64 `yaml:"min_net" json:"min_net"`

	// Score is the raw score assigned at or above the floor.
	Score float64 `yaml:"score" json:"score" validate:"min=0"`
}

// Scorer advances a score record through the scoring state machine:
// NO_DATA, RAW_COMPUTED, CURVED, CATEGORIZED. It is stateless and safe
// for concurrent use; determinism follows from the curve and band
// policies being pure.
type Scorer struct {
	curve domain.Curve
	bands *domain.BandTable
	tiers []AmountTier
}

// NewScorer builds a scorer over the given curve policy, category
// table, and zero-receipts fallback tiers. Tiers must be ascending in
// MinNet; the highest matching tier wins.
func NewScorer(curve domain.Curve, bands *domain.BandTable, tiers []AmountTier) (*Scorer, error) {
	if curve == nil {
		return nil, fmt.Errorf("%w: curve policy is required", domain.ErrInvalidCurve)
	}
	if bands == nil {
		return nil, fmt.Errorf("%w: band table is required", domain.ErrInvalidBands)
	}
	max := bands.Max()
	for i, t := range tiers {
		if t.Score < 0 || t.Score > max {
			return nil, fmt.Errorf("%w: fallback tier score %v outside [0, %v]", domain.ErrInvalidBands, t.Score, max)
		}
		if i > 0 && tiers[i].MinNet <= tiers[i-1].MinNet {
			return nil, fmt.Errorf("%w: fallback tiers must ascend, %d follows %d",
				domain.ErrInvalidBands, tiers[i].MinNet, tiers[i-1].MinNet)
		}
	}
	return &Scorer{curve: curve, bands: bands, tiers: tiers}, nil
}

// DefaultAmountTiers returns the stock zero-receipts fallback: net
// amounts bucketed by order of magnitude onto the 0–5 range.
func DefaultAmountTiers() []AmountTier {
	return []AmountTier{
		{MinNet: 1, Score: 1},
		{MinNet: 10_000, Score: 2},
		{MinNet: 50_000, Score: 3},
		{MinNet: 250_000, Score: 4},
		{MinNet: 1_000_000, Score: 5},
	}
}

// Score advances the record through RAW_COMPUTED, CURVED, and
// CATEGORIZED in place. The population carries the cohort's raw scores
// for rank-based curves; pass nil for single-candidate queries.
//
// The raw score normalizes net against total receipts to make
// campaigns of different sizes comparable, scaled onto [0, max] and
// clamped at both ends. Zero or missing receipts fall back to the
// amount tiers and flag the record low confidence instead of dividing
// by zero.
func (s *Scorer) Score(rec *domain.ScoreRecord, population []float64) {
	rec.Net = rec.Subtotals.Net()

	rec.RawScore = s.RawScore(rec.Net, rec.TotalReceipts)
	if !rec.TotalReceipts.IsPositive() {
		rec.LowConfidence = true
	}
	rec.State = domain.StateRawComputed

	rec.CurvedScore = s.curve.Apply(rec.RawScore, population)
	rec.State = domain.StateCurved

	rec.Category = s.bands.Categorize(rec.CurvedScore)
	rec.State = domain.StateCategorized

	rec.Confidence = s.confidence(rec)
}

// RawScore computes the receipts-normalized raw score on [0, max].
// The pro-Israel share of receipts maps linearly onto the range, so a
// candidate funded entirely by configured committees scores the
// maximum. Negative net clamps to zero.
func (s *Scorer) RawScore(net, receipts decimal.Decimal) float64 {
	max := s.bands.Max()
	if !receipts.IsPositive() {
		return s.fallbackTier(net)
	}
	share, _ := net.Div(receipts).Float64()
	if share < 0 {
		return 0
	}
	if share > 1 {
		return max
	}
	return share * max
}

// fallbackTier maps a net amount to the un-normalized tier score used
// when receipts are zero or missing.
func (s *Scorer) fallbackTier(net decimal.Decimal) float64 {
	score := 0.0
	for _, t := range s.tiers {
		if net.GreaterThanOrEqual(decimal.NewFromInt(t.MinNet)) {
			score = t.Score
		}
	}
	return score
}

// confidence derives the per-subtotal confidence tags. Direct
// contributions are the most attributable source; independent
// expenditures and bundled amounts are indirect and never report
// higher confidence than direct. A failed variant read drops its
// category to low.
func (s *Scorer) confidence(rec *domain.ScoreRecord) domain.SubtotalConfidence {
	conf := domain.SubtotalConfidence{
		Direct:                 domain.ConfidenceHigh,
		IndependentExpenditure: domain.ConfidenceMedium,
		Bundled:                domain.ConfidenceMedium,
	}
	for _, variant := range rec.DegradedVariants {
		switch variant {
		case domain.VariantDirect:
			conf.Direct = domain.ConfidenceLow
		case domain.VariantExpenditure:
			conf.IndependentExpenditure = domain.ConfidenceLow
		case domain.VariantConduit:
			conf.Bundled = domain.ConfidenceLow
		}
	}
	conf.IndependentExpenditure = conf.IndependentExpenditure.AtMost(conf.Direct)
	conf.Bundled = conf.Bundled.AtMost(conf.IndependentExpenditure)
	return conf
}
