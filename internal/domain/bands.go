package domain

import (
	"fmt"
	"sort"
)

// Band is one category interval of the score range. A band covers
// [Lower, Upper); the table's final band additionally includes its
// upper bound so the range stays exhaustive.
type Band struct {
	Lower float64 `yaml:"lower" json:"lower" validate:"min=0"`
	Upper float64 `yaml:"upper" json:"upper" validate:"min=0"`
	Label string  `yaml:"label" json:"label" validate:"required"`
}

// BandTable maps curved scores to support categories. Bands are
// configuration, not code: the table is validated once at construction
// to be non-overlapping and exhaustive over [0, max], so Categorize can
// never fail for an in-range score.
type BandTable struct {
	bands []Band
	max   float64
}

// NewBandTable validates and builds a category table over [0, max].
// Bands must be contiguous from 0 to max with no gaps, overlaps, or
// duplicate labels.
func NewBandTable(bands []Band, max float64) (*BandTable, error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: band range max must be positive, got %v", ErrInvalidBands, max)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: at least one band is required", ErrInvalidBands)
	}
	sorted := append([]Band(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lower < sorted[j].Lower })

	labels := make(map[string]struct{}, len(sorted))
	cursor := 0.0
	for _, b := range sorted {
		if b.Label == "" {
			return nil, fmt.Errorf("%w: band starting at %v has no label", ErrInvalidBands, b.Lower)
		}
		if _, dup := labels[b.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidBands, b.Label)
		}
		labels[b.Label] = struct{}{}
		if b.Upper <= b.Lower {
			return nil, fmt.Errorf("%w: band %q is empty (%v..%v)", ErrInvalidBands, b.Label, b.Lower, b.Upper)
		}
		if b.Lower != cursor {
			return nil, fmt.Errorf("%w: band %q starts at %v, expected %v", ErrInvalidBands, b.Label, b.Lower, cursor)
		}
		cursor = b.Upper
	}
	if cursor != max {
		return nil, fmt.Errorf("%w: bands end at %v, expected %v", ErrInvalidBands, cursor, max)
	}
	return &BandTable{bands: sorted, max: max}, nil
}

// Max returns the upper bound of the score range the table covers.
func (t *BandTable) Max() float64 { return t.max }

// Bands returns a copy of the ordered band list.
func (t *BandTable) Bands() []Band { return append([]Band(nil), t.bands...) }

// Categorize returns the label of the band containing the given curved
// score. Out-of-range scores are clamped first, so every float maps to
// exactly one category.
func (t *BandTable) Categorize(score float64) string {
	score = clamp(score, 0, t.max)
	for _, b := range t.bands {
		if score < b.Upper {
			return b.Label
		}
	}
	// score == max lands in the final band.
	return t.bands[len(t.bands)-1].Label
}

// DefaultBands returns the stock five-category partition of a 0–5
// score range, from opposition through strong support.
func DefaultBands() []Band {
	return []Band{
		{Lower: 0, Upper: 1, Label: "Anti"},
		{Lower: 1, Upper: 2, Label: "Limited"},
		{Lower: 2, Upper: 3, Label: "Neutral"},
		{Lower: 3, Upper: 4, Label: "Moderate"},
		{Lower: 4, Upper: 5, Label: "Strong"},
	}
}
