package design

import (
	"sort"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// Rule is one independent design check.
//
// Rules are pure functions of the context: evaluating a rule never
// mutates the context beyond the result it returns, and adding a new
// rule never requires touching existing ones. Rules run in ascending
// Priority order; a Critical result from any rule short-circuits the
// remaining ones for that scenario.
type Rule interface {
	Name() string
	Priority() int
	Evaluate(*SolutionContext) model.ValidationResult
}

// SortRules orders rules by ascending priority, stable so that rules
// sharing a priority keep registration order.
func SortRules(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}
