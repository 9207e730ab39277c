package design

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
	"github.com/thanhtdvncc/dts-beam-tool/internal/scoring"
)

// Outcome is the result of one full design pass over a group: the
// ranked candidate list and the selected winner.
type Outcome struct {
	GroupID   string
	Solutions []*model.ContinuousBeamSolution
	Winner    *model.ContinuousBeamSolution
}

// EvaluateAll generates, evaluates and scores every candidate scenario
// for a group, then ranks them and picks a winner.
//
// Candidates are evaluated on a bounded worker pool. Each context is a
// self-contained clone sharing only read-only inputs, so no locking is
// needed around evaluation itself; results are merged through a single
// channel. The ranking is deterministic regardless of completion order.
//
// If the group carries a locked selection, the matching regenerated
// candidate wins; a locked selection with no matching candidate is kept
// as the winner unchanged (manual overrides survive regeneration).
func EvaluateAll(group *model.BeamGroup, s config.Settings, rules []Rule) (*Outcome, error) {
	if err := s.Weights.Validate(); err != nil {
		return nil, err
	}

	contexts, err := Generate(group, s)
	if err != nil {
		return nil, err
	}

	solutions := evaluateParallel(contexts, rules, s.Workers)

	// Score only what survived the pipeline; invalid candidates keep a
	// zero score and rank below every valid one.
	for _, sol := range solutions {
		if !sol.Valid {
			continue
		}
		breakdown, err := scoring.Score(sol, group, s)
		if err != nil {
			return nil, err
		}
		sol.Score = breakdown
	}

	rank(solutions)

	out := &Outcome{GroupID: group.GroupID, Solutions: solutions}
	winner, err := pickWinner(group, solutions)
	if err != nil {
		return out, err
	}
	out.Winner = winner

	slog.Info("design pass complete",
		"group", group.GroupID,
		"candidates", len(solutions),
		"winner", winner.OptionName,
		"score", winner.Score.Total,
	)
	return out, nil
}

// evaluateParallel runs the pipeline for each context across at most
// workers goroutines and collects solutions in input order.
func evaluateParallel(contexts []*SolutionContext, rules []Rule, workers int) []*model.ContinuousBeamSolution {
	if workers < 1 {
		workers = 1
	}
	if workers > len(contexts) {
		workers = len(contexts)
	}

	solutions := make([]*model.ContinuousBeamSolution, len(contexts))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := contexts[i]
				if err := RunPipeline(c, rules); err != nil {
					// A pipeline fault (not a rule rejection) discards
					// the candidate; siblings are unaffected.
					slog.Warn("candidate discarded",
						"group", c.Group.GroupID,
						"option", c.OptionName,
						"error", err,
					)
					continue
				}
				solutions[i] = c.Solution
			}
		}()
	}
	for i := range contexts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Compact out discarded slots.
	kept := solutions[:0]
	for _, sol := range solutions {
		if sol != nil {
			kept = append(kept, sol)
		}
	}
	return kept
}

// rankValue is the ordering metric: the weighted score minus the
// accumulated rule penalties.
func rankValue(sol *model.ContinuousBeamSolution) float64 {
	return sol.Score.Total - sol.TotalPenalty()
}

// rank sorts solutions best-first: valid before invalid, then by rank
// value descending, then by option name for a deterministic order.
func rank(solutions []*model.ContinuousBeamSolution) {
	sort.SliceStable(solutions, func(i, j int) bool {
		a, b := solutions[i], solutions[j]
		if a.Valid != b.Valid {
			return a.Valid
		}
		av, bv := rankValue(a), rankValue(b)
		if av != bv {
			return av > bv
		}
		return a.OptionName < b.OptionName
	})
}

// pickWinner selects the winning solution from a ranked list.
//
// Precedence: a locked previous selection matching a regenerated
// candidate, then the locked previous selection itself, then the best
// valid candidate. When no candidate is valid the result is the
// explicit NO_VALID_SCENARIO outcome with the least-bad candidate
// attached for diagnostics.
func pickWinner(group *model.BeamGroup, solutions []*model.ContinuousBeamSolution) (*model.ContinuousBeamSolution, error) {
	if prev := group.Selected; prev != nil && prev.Locked {
		for _, sol := range solutions {
			if prev.SameScenario(sol) {
				sol.Locked = true
				return sol, nil
			}
		}
		// The locked scenario no longer regenerates (demand changed);
		// the manual override still stands.
		return prev, nil
	}

	for _, sol := range solutions {
		if sol.Valid {
			return sol, nil
		}
	}

	var fallback *model.ContinuousBeamSolution
	if len(solutions) > 0 {
		fallback = solutions[0]
	}
	return nil, NewNoValidScenarioError(group.GroupID, len(solutions), fallback)
}
