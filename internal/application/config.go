package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/obedier/fundscore/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// CurveConfig selects and parameterizes the curve policy.
type CurveConfig struct {
	// Type selects the policy: linear, piecewise, or percentile.
	Type string `yaml:"type" validate:"required,oneof=linear piecewise percentile"`

	// Points defines the breakpoint table for the piecewise policy and
	// is ignored by the others.
	Points []domain.CurvePoint `yaml:"points,omitempty" validate:"dive"`
}

// Config is the engine configuration: score range, curve policy,
// category bands, fallback tiers, and the concurrency and timeout
// budget. The banding thresholds live here, never as literals in the
// categorization logic.
type Config struct {
	// MaxScore is the upper bound of the public score range.
	MaxScore float64 `yaml:"max_score" validate:"required,gt=0"`

	// Curve selects the normalization policy applied to raw scores.
	Curve CurveConfig `yaml:"curve" validate:"required"`

	// Bands partitions [0, MaxScore] into ordered support categories.
	Bands []domain.Band `yaml:"bands" validate:"required,min=1,dive"`

	// FallbackTiers maps net amounts to scores when receipts are
	// missing, ascending by floor.
	FallbackTiers []AmountTier `yaml:"fallback_tiers" validate:"dive"`

	// Concurrency bounds the parallel per-candidate computations in
	// bulk summaries.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=256"`

	// RequestTimeout caps one engine operation end to end. Zero
	// disables the internal deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ConfigCacheTTL bounds how long configuration reads may be served
	// from the process-wide cache between administrative writes.
	ConfigCacheTTL time.Duration `yaml:"config_cache_ttl"`

	// TopN caps the ranking lengths in overview output.
	TopN int `yaml:"top_n" validate:"min=1,max=1000"`
}

// DefaultConfig returns the production defaults: a 0–5 linear curve,
// the stock five-category bands, and order-of-magnitude fallback
// tiers.
func DefaultConfig() Config {
	return Config{
		MaxScore:       5,
		Curve:          CurveConfig{Type: "linear"},
		Bands:          domain.DefaultBands(),
		FallbackTiers:  DefaultAmountTiers(),
		Concurrency:    8,
		RequestTimeout: 30 * time.Second,
		ConfigCacheTTL: time.Minute,
		TopN:           10,
	}
}

// LoadConfig reads a YAML configuration file, overlaying it on the
// defaults and validating the result. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the structural constraints and builds nothing; use
// BuildScorer to materialize the validated policies.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	// Band and curve tables carry semantic constraints beyond struct
	// tags; constructing them is the validation.
	if _, err := domain.NewBandTable(c.Bands, c.MaxScore); err != nil {
		return err
	}
	if _, err := c.buildCurve(); err != nil {
		return err
	}
	return nil
}

// BuildScorer materializes the scorer from the validated
// configuration.
func (c Config) BuildScorer() (*Scorer, error) {
	bands, err := domain.NewBandTable(c.Bands, c.MaxScore)
	if err != nil {
		return nil, err
	}
	curve, err := c.buildCurve()
	if err != nil {
		return nil, err
	}
	return NewScorer(curve, bands, c.FallbackTiers)
}

func (c Config) buildCurve() (domain.Curve, error) {
	switch c.Curve.Type {
	case "linear", "":
		return domain.LinearCurve{Max: c.MaxScore}, nil
	case "percentile":
		return domain.PercentileCurve{Max: c.MaxScore}, nil
	case "piecewise":
		return domain.NewPiecewiseCurve(c.Curve.Points, c.MaxScore)
	}
	return nil, fmt.Errorf("%w: unknown curve type %q", domain.ErrInvalidCurve, c.Curve.Type)
}
