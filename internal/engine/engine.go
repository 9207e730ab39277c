// Package engine drives the full design pass: load spans from the
// drawing store, build groups, heal identities, evaluate scenarios and
// persist winners.
//
// Processing is group-by-group on a single caller goroutine; only the
// scenario evaluation inside one group fans out to workers. Each
// group's healing and final registry write run inside one store
// transaction, and a pass abandoned at any stage boundary leaves no
// side effects because the persisted write happens once, at the end.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/design"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
	"github.com/thanhtdvncc/dts-beam-tool/internal/registry"
	"github.com/thanhtdvncc/dts-beam-tool/internal/store"
	"github.com/thanhtdvncc/dts-beam-tool/internal/topology"
)

// Engine wires the store, registry, topology builder and rule set into
// one design pass runner.
type Engine struct {
	store    *store.Store
	registry *registry.Registry
	builder  *topology.Builder
	settings config.Settings
	rules    []design.Rule
}

// New creates an Engine. The rule slice is used as given; callers that
// want the standard set pass rules.Default().
func New(s *store.Store, settings config.Settings, rules []design.Rule) *Engine {
	return &Engine{
		store:    s,
		registry: registry.New(s),
		builder:  topology.NewBuilder(settings),
		settings: settings,
		rules:    rules,
	}
}

// Registry exposes the engine's registry, mainly for the heal command.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// GroupResult is the per-group outcome of a pass. Err holds the
// explicit skip/no-design outcomes; a failed group never aborts the
// others.
type GroupResult struct {
	Group   *model.BeamGroup
	Heal    registry.HealReport
	Outcome *design.Outcome
	Err     error
}

// BuildGroups loads every span and splits them into beam groups,
// honouring persisted prior links over geometric re-derivation.
func (e *Engine) BuildGroups(ctx context.Context) ([]model.BeamGroup, error) {
	spans, err := e.store.ListSpans(ctx)
	if err != nil {
		return nil, fmt.Errorf("build groups: %w", err)
	}
	prior, err := e.store.GroupIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("build groups: %w", err)
	}
	nodes := e.builder.BuildGraph(spans, prior)
	return topology.SplitIntoGroups(nodes), nil
}

// RunAll designs every group in the model and persists the winners.
func (e *Engine) RunAll(ctx context.Context) ([]GroupResult, error) {
	groups, err := e.BuildGroups(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]GroupResult, 0, len(groups))
	for i := range groups {
		results = append(results, e.runGroup(ctx, &groups[i]))
	}
	return results, nil
}

// runGroup heals, evaluates and persists one group. Skip outcomes
// (missing analysis data, exhausted design space) land in Err; the
// caller decides how loudly to report them.
func (e *Engine) runGroup(ctx context.Context, group *model.BeamGroup) GroupResult {
	res := GroupResult{Group: group}

	report, err := e.registry.Heal(ctx, group)
	if err != nil {
		res.Err = err
		return res
	}
	res.Heal = report

	// A previously persisted selection re-attaches before evaluation
	// so a locked manual override survives regeneration.
	if prev, ok, err := e.LoadSelected(ctx, group); err != nil {
		res.Err = err
		return res
	} else if ok {
		group.Selected = prev
	}

	outcome, err := design.EvaluateAll(group, e.settings, e.rules)
	if err != nil {
		if design.IsExternalDataMissing(err) || design.IsNoValidScenario(err) {
			slog.Warn("group skipped", "group", group.GroupID, "reason", err)
			res.Outcome = outcome
			res.Err = err
			return res
		}
		res.Err = err
		return res
	}
	res.Outcome = outcome
	group.Selected = outcome.Winner

	if err := e.PersistSelected(ctx, group); err != nil {
		res.Err = err
	}
	return res
}

// PersistSelected writes the group's selected solution to the anchor
// span's record area. This is the single registry-adjacent write of a
// pass; everything before it is disposable.
func (e *Engine) PersistSelected(ctx context.Context, group *model.BeamGroup) error {
	anchor, ok := group.Anchor()
	if !ok || group.Selected == nil {
		return nil
	}
	if err := e.store.WriteRecord(ctx, anchor.ID, store.RecordSelectedSolution, group.Selected); err != nil {
		return fmt.Errorf("persist selected solution: %w", err)
	}
	return nil
}

// LoadSelected reads the persisted selected solution for a group
// without regeneration. ok is false when none was ever persisted.
func (e *Engine) LoadSelected(ctx context.Context, group *model.BeamGroup) (*model.ContinuousBeamSolution, bool, error) {
	anchor, okAnchor := group.Anchor()
	if !okAnchor {
		return nil, false, nil
	}
	var sol model.ContinuousBeamSolution
	ok, err := e.store.ReadRecord(ctx, anchor.ID, store.RecordSelectedSolution, &sol)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load selected solution: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &sol, true, nil
}

// LockSelected marks the group's persisted selection as a manual
// override so later passes keep it.
func (e *Engine) LockSelected(ctx context.Context, group *model.BeamGroup, sol *model.ContinuousBeamSolution) error {
	locked := *sol
	locked.Locked = true
	group.Selected = &locked
	return e.PersistSelected(ctx, group)
}
