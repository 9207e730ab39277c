package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// Scenario defines a conformance test scenario: a drawing described as
// data, optional settings overrides, and the expected design outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; it doubles as the golden
	// fixture name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Settings overrides the default design settings. The fragment is
	// validated against the same schema as a real settings file.
	Settings map[string]any `yaml:"settings,omitempty"`

	// Spans describes the drawing to seed the store with.
	Spans []SpanSpec `yaml:"spans"`

	// Expect validates the pass outcome.
	Expect Expectations `yaml:"expect"`
}

// SpanSpec is the declarative form of one span. Geometry is horizontal
// (X0..X1 at Y); demand is a uniform top/bottom area unless NoDemand is
// set.
type SpanSpec struct {
	ID    string  `yaml:"id"`
	X0    float64 `yaml:"x0"`
	X1    float64 `yaml:"x1"`
	Y     float64 `yaml:"y,omitempty"`
	Width float64 `yaml:"width,omitempty"`
	Depth float64 `yaml:"depth,omitempty"`

	Top      float64 `yaml:"top,omitempty"`
	Bot      float64 `yaml:"bot,omitempty"`
	NoDemand bool    `yaml:"no_demand,omitempty"`

	Concrete string `yaml:"concrete,omitempty"`
	Steel    string `yaml:"steel,omitempty"`
}

// Expectations validates the outcome of one design pass.
type Expectations struct {
	// Groups is the expected group count after topology building.
	Groups int `yaml:"groups"`

	// Winners maps anchor span ID to the expected winning option name.
	Winners map[string]string `yaml:"winners,omitempty"`

	// Skipped lists anchor span IDs of groups expected to be skipped
	// (missing demand, exhausted design space).
	Skipped []string `yaml:"skipped,omitempty"`
}

// Span materializes the span description with fixture defaults filled in.
func (sp SpanSpec) Span() model.Span {
	s := model.Span{
		ID:            sp.ID,
		Start:         model.Point2D{X: sp.X0, Y: sp.Y},
		End:           model.Point2D{X: sp.X1, Y: sp.Y},
		Width:         sp.Width,
		Depth:         sp.Depth,
		SupportStart:  model.SupportColumn,
		SupportEnd:    model.SupportColumn,
		ConcreteGrade: sp.Concrete,
		SteelGrade:    sp.Steel,
	}
	if s.Width == 0 {
		s.Width = 300
	}
	if s.Depth == 0 {
		s.Depth = 600
	}
	if s.ConcreteGrade == "" {
		s.ConcreteGrade = "B20"
	}
	if s.SteelGrade == "" {
		s.SteelGrade = "CB400-V"
	}
	if !sp.NoDemand {
		zd := model.ZoneDemand{TopArea: sp.Top, BotArea: sp.Bot}
		s.Demand = &model.SteelDemand{Start: zd, Mid: zd, End: zd}
	}
	return s
}

// LoadScenario parses and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("load scenario %s: missing name", path)
	}
	if len(sc.Spans) == 0 {
		return nil, fmt.Errorf("load scenario %s: no spans", path)
	}
	return &sc, nil
}

// LoadScenarios loads every scenario file in a directory, sorted by
// name for deterministic test ordering.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

// BuildSettings layers the scenario's overrides over the defaults,
// running them through the same schema validation a settings file gets.
func (sc *Scenario) BuildSettings() (config.Settings, error) {
	s := config.Default()
	if len(sc.Settings) == 0 {
		return s, nil
	}
	b, err := yaml.Marshal(sc.Settings)
	if err != nil {
		return config.Settings{}, fmt.Errorf("scenario %s: settings: %w", sc.Name, err)
	}
	if err := config.ValidateDocument(b); err != nil {
		return config.Settings{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return config.Settings{}, fmt.Errorf("scenario %s: settings: %w", sc.Name, err)
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return s, nil
}
