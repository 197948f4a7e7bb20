package domain

import (
	"fmt"
	"sort"
)

// Curve maps a raw score into the public-facing score range. The curve
// is a swappable policy: the engine fixes only its required properties,
// never a particular formula. Every implementation must be
//
//   - deterministic: identical inputs yield an identical output,
//   - monotone: a higher raw score never curves lower, and
//   - bounded: output stays within [0, max] for input within [0, max].
//
// The population argument carries the raw scores of every candidate in
// the requested cycles, for curves that rank within the cohort.
// Population-free curves ignore it; rank-based curves fall back to the
// identity mapping when it is empty so single-candidate queries remain
// answerable.
type Curve interface {
	// Name identifies the curve policy for logs and configuration.
	Name() string

	// Apply maps a raw score to a curved score given the cohort's raw
	// scores. Apply must be safe for concurrent use.
	Apply(raw float64, population []float64) float64
}

// LinearCurve is the identity policy: the curved score is the raw
// score, clamped to [0, Max]. It is the default and the baseline other
// curves are validated against.
type LinearCurve struct {
	// Max is the upper bound of the score range.
	Max float64
}

// Name implements Curve.
func (LinearCurve) Name() string { return "linear" }

// Apply implements Curve by clamping the raw score to [0, Max].
func (c LinearCurve) Apply(raw float64, _ []float64) float64 {
	return clamp(raw, 0, c.Max)
}

// CurvePoint is one breakpoint of a piecewise-linear curve table.
type CurvePoint struct {
	// Raw is the input breakpoint.
	Raw float64 `yaml:"raw" json:"raw" validate:"min=0"`

	// Curved is the output value at the breakpoint.
	Curved float64 `yaml:"curved" json:"curved" validate:"min=0"`
}

// PiecewiseCurve interpolates linearly between a fixed, ordered table
// of breakpoints. The table is configuration, so the curve shape can be
// tuned per deployment without touching categorization logic.
type PiecewiseCurve struct {
	points []CurvePoint
	max    float64
}

// NewPiecewiseCurve validates and builds a piecewise-linear curve over
// [0, max]. Points must be strictly increasing in Raw and
// non-decreasing in Curved (monotonicity), and must start at raw 0 and
// end at raw max (boundedness).
func NewPiecewiseCurve(points []CurvePoint, max float64) (*PiecewiseCurve, error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: curve range max must be positive, got %v", ErrInvalidCurve, max)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: piecewise curve needs at least two points", ErrInvalidCurve)
	}
	sorted := append([]CurvePoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Raw < sorted[j].Raw })
	if sorted[0].Raw != 0 {
		return nil, fmt.Errorf("%w: curve must start at raw 0, starts at %v", ErrInvalidCurve, sorted[0].Raw)
	}
	if last := sorted[len(sorted)-1].Raw; last != max {
		return nil, fmt.Errorf("%w: curve must end at raw %v, ends at %v", ErrInvalidCurve, max, last)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Raw == sorted[i-1].Raw {
			return nil, fmt.Errorf("%w: duplicate breakpoint at raw %v", ErrInvalidCurve, sorted[i].Raw)
		}
		if sorted[i].Curved < sorted[i-1].Curved {
			return nil, fmt.Errorf("%w: curved values must be non-decreasing, %v follows %v",
				ErrInvalidCurve, sorted[i].Curved, sorted[i-1].Curved)
		}
		if sorted[i].Curved > max {
			return nil, fmt.Errorf("%w: curved value %v exceeds range max %v", ErrInvalidCurve, sorted[i].Curved, max)
		}
	}
	return &PiecewiseCurve{points: sorted, max: max}, nil
}

// Name implements Curve.
func (*PiecewiseCurve) Name() string { return "piecewise" }

// Apply implements Curve by linear interpolation between breakpoints.
func (c *PiecewiseCurve) Apply(raw float64, _ []float64) float64 {
	raw = clamp(raw, 0, c.max)
	for i := 1; i < len(c.points); i++ {
		lo, hi := c.points[i-1], c.points[i]
		if raw > hi.Raw {
			continue
		}
		span := hi.Raw - lo.Raw
		frac := (raw - lo.Raw) / span
		return lo.Curved + frac*(hi.Curved-lo.Curved)
	}
	return c.points[len(c.points)-1].Curved
}

// PercentileCurve ranks the raw score within the cohort of all
// candidates scored for the same cycles, spreading the curved score
// over [0, Max] by percentile. With an empty population it degrades to
// the identity mapping so a single-candidate query stays deterministic.
type PercentileCurve struct {
	// Max is the upper bound of the score range.
	Max float64
}

// Name implements Curve.
func (PercentileCurve) Name() string { return "percentile" }

// Apply implements Curve. The percentile is the fraction of the cohort
// with a strictly lower raw score plus half the ties, which keeps the
// mapping monotone and stable under re-runs of an unchanged ledger.
func (c PercentileCurve) Apply(raw float64, population []float64) float64 {
	if len(population) == 0 {
		return clamp(raw, 0, c.Max)
	}
	var below, ties float64
	for _, p := range population {
		switch {
		case p < raw:
			below++
		case p == raw:
			ties++
		}
	}
	pct := (below + ties/2) / float64(len(population))
	return clamp(pct*c.Max, 0, c.Max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
