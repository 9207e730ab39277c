// Package config loads and validates design settings.
//
// Settings come from a YAML file layered over built-in defaults. Before
// use, the raw document is validated against an embedded CUE schema so
// that a malformed file is rejected up front with a position-carrying
// error instead of surfacing later as a strange design result.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// WeightSumTolerance is the allowed deviation of the scoring weight sum
// from 1.0.
const WeightSumTolerance = 1e-6

// Weights are the constructability scoring weights. They must sum to
// 1.0 within WeightSumTolerance; this is checked before any scenario is
// scored.
type Weights struct {
	Splices   float64 `yaml:"splices" json:"splices"`
	Diversity float64 `yaml:"diversity" json:"diversity"`
	Spacing   float64 `yaml:"spacing" json:"spacing"`
	Layering  float64 `yaml:"layering" json:"layering"`
}

// Validate checks the unit-sum invariant.
func (w Weights) Validate() error {
	sum := w.Splices + w.Diversity + w.Spacing + w.Layering
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Settings is the read-only configuration for one design pass.
// All lengths are millimetres.
type Settings struct {
	// AllowedDiameters restricts backbone and addon bar choices.
	AllowedDiameters []int `yaml:"allowed_diameters" json:"allowed_diameters"`

	// MinClearSpacing is the configured minimum clear distance between
	// longitudinal bars. The binding spacing is the maximum of this, the
	// diameter multiple (if enabled) and 1.33x the aggregate size.
	MinClearSpacing    float64 `yaml:"min_clear_spacing" json:"min_clear_spacing"`
	AggregateSize      float64 `yaml:"aggregate_size" json:"aggregate_size"`
	UseDiaMultiple     bool    `yaml:"use_dia_multiple" json:"use_dia_multiple"`
	DiaSpacingMultiple float64 `yaml:"dia_spacing_multiple" json:"dia_spacing_multiple"`

	// StockBarLength is the standard mill length bars are supplied in.
	StockBarLength float64 `yaml:"stock_bar_length" json:"stock_bar_length"`

	SideCover  float64 `yaml:"side_cover" json:"side_cover"`
	StirrupDia int     `yaml:"stirrup_dia" json:"stirrup_dia"`
	MaxLayers  int     `yaml:"max_layers" json:"max_layers"`

	// Torsion distribution factors split the torsional longitudinal
	// demand between faces.
	TorsionTopFactor float64 `yaml:"torsion_top_factor" json:"torsion_top_factor"`
	TorsionBotFactor float64 `yaml:"torsion_bot_factor" json:"torsion_bot_factor"`

	// Topology tolerances.
	CollinearTolerance float64 `yaml:"collinear_tolerance" json:"collinear_tolerance"`
	ConnectTolerance   float64 `yaml:"connect_tolerance" json:"connect_tolerance"`

	// Fallback geometry for spans with unusable dimensions.
	DefaultWidth  float64 `yaml:"default_width" json:"default_width"`
	DefaultDepth  float64 `yaml:"default_depth" json:"default_depth"`
	DefaultLength float64 `yaml:"default_length" json:"default_length"`

	// Vertical alignment rule tuning.
	VerticalAlignPenalty  float64 `yaml:"vertical_align_penalty" json:"vertical_align_penalty"`
	VerticalAlignDiffStep float64 `yaml:"vertical_align_diff_step" json:"vertical_align_diff_step"`

	// Workers bounds parallel scenario evaluation.
	Workers int `yaml:"workers" json:"workers"`

	Weights Weights `yaml:"weights" json:"weights"`
}

// Default returns the built-in settings. Values follow common practice
// for metric rebar detailing (11.7 m stock bars, 25 mm minimum clear
// spacing, 20 mm coarse aggregate).
func Default() Settings {
	return Settings{
		AllowedDiameters:      []int{16, 18, 20, 22, 25, 28, 32},
		MinClearSpacing:       25,
		AggregateSize:         20,
		UseDiaMultiple:        true,
		DiaSpacingMultiple:    1.0,
		StockBarLength:        11700,
		SideCover:             40,
		StirrupDia:            10,
		MaxLayers:             2,
		TorsionTopFactor:      0.25,
		TorsionBotFactor:      0.25,
		CollinearTolerance:    500,
		ConnectTolerance:      1000,
		DefaultWidth:          220,
		DefaultDepth:          400,
		DefaultLength:         3000,
		VerticalAlignPenalty:  25,
		VerticalAlignDiffStep: 5,
		Workers:               4,
		Weights: Weights{
			Splices:   0.35,
			Diversity: 0.25,
			Spacing:   0.2,
			Layering:  0.2,
		},
	}
}

// Load reads a settings file, validates it against the embedded schema,
// and unmarshals it over the defaults. A missing path returns defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := ValidateDocument(data); err != nil {
		return Settings{}, err
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ValidateDocument checks a raw YAML settings document against the
// embedded CUE schema without unmarshalling it.
func ValidateDocument(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile settings schema: %w", err)
	}
	if err := cueyaml.Validate(data, schema); err != nil {
		return fmt.Errorf("settings rejected by schema: %w", err)
	}
	return nil
}

// Validate checks cross-field invariants the schema cannot express.
func (s Settings) Validate() error {
	if len(s.AllowedDiameters) == 0 {
		return fmt.Errorf("allowed_diameters must not be empty")
	}
	if s.StockBarLength <= 0 {
		return fmt.Errorf("stock_bar_length must be positive, got %.1f", s.StockBarLength)
	}
	if s.TorsionTopFactor+s.TorsionBotFactor > 1.0 {
		return fmt.Errorf("torsion factors exceed 1.0 combined (%.2f + %.2f)",
			s.TorsionTopFactor, s.TorsionBotFactor)
	}
	if err := s.Weights.Validate(); err != nil {
		return err
	}
	return nil
}

// MaxAllowedDiameter returns the largest configured diameter.
func (s Settings) MaxAllowedDiameter() int {
	max := 0
	for _, d := range s.AllowedDiameters {
		if d > max {
			max = d
		}
	}
	return max
}
