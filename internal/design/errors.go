package design

import (
	"errors"
	"fmt"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// DesignError represents a categorized outcome of a design pass.
//
// Most of the taxonomy never surfaces as an error at all: invalid
// geometry degrades to defaults, rejected scenarios are losing
// candidates, and registry inconsistencies are self-healed. The two
// codes that do reach callers are NO_VALID_SCENARIO (an explicit "no
// design possible" outcome) and EXTERNAL_DATA_MISSING (the group is
// skipped with a diagnostic).
type DesignError struct {
	// Code identifies the error category.
	Code DesignErrorCode

	// Message is a human-readable description.
	Message string

	// GroupID identifies the affected beam group.
	GroupID string

	// SpanID identifies the affected span, when one is known.
	SpanID string

	// Fallback carries the best-effort losing candidate for
	// NO_VALID_SCENARIO, attached for diagnostics only.
	Fallback *model.ContinuousBeamSolution

	// Details contains additional context.
	Details map[string]string
}

// DesignErrorCode categorizes design errors.
type DesignErrorCode string

const (
	// ErrCodeInvalidGeometry indicates a span lacked usable dimensions.
	// Always degraded to configured defaults, never raised.
	ErrCodeInvalidGeometry DesignErrorCode = "INVALID_GEOMETRY"

	// ErrCodeScenarioRejected indicates a Critical rule violation.
	// A normal losing candidate, never raised.
	ErrCodeScenarioRejected DesignErrorCode = "SCENARIO_REJECTED"

	// ErrCodeRegistryInconsistent indicates a ghost/orphan/duplicate.
	// Always self-healed, never raised.
	ErrCodeRegistryInconsistent DesignErrorCode = "REGISTRY_INCONSISTENT"

	// ErrCodeNoValidScenario indicates every candidate was invalid.
	ErrCodeNoValidScenario DesignErrorCode = "NO_VALID_SCENARIO"

	// ErrCodeExternalDataMissing indicates required analysis results
	// were absent for a span.
	ErrCodeExternalDataMissing DesignErrorCode = "EXTERNAL_DATA_MISSING"
)

// Error implements the error interface.
func (e *DesignError) Error() string {
	if e.GroupID != "" && e.SpanID != "" {
		return fmt.Sprintf("%s: %s (group=%s, span=%s)", e.Code, e.Message, e.GroupID, e.SpanID)
	}
	if e.GroupID != "" {
		return fmt.Sprintf("%s: %s (group=%s)", e.Code, e.Message, e.GroupID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoValidScenario reports whether the error is a design-space
// exhaustion outcome. Uses errors.As to handle wrapped errors.
func IsNoValidScenario(err error) bool {
	var de *DesignError
	if errors.As(err, &de) {
		return de.Code == ErrCodeNoValidScenario
	}
	return false
}

// IsExternalDataMissing reports whether the error is a missing analysis
// result. Uses errors.As to handle wrapped errors.
func IsExternalDataMissing(err error) bool {
	var de *DesignError
	if errors.As(err, &de) {
		return de.Code == ErrCodeExternalDataMissing
	}
	return false
}

// NewNoValidScenarioError creates the explicit "no design possible"
// outcome with the best-effort fallback attached.
func NewNoValidScenarioError(groupID string, candidates int, fallback *model.ContinuousBeamSolution) *DesignError {
	return &DesignError{
		Code:     ErrCodeNoValidScenario,
		Message:  fmt.Sprintf("all %d generated scenarios were rejected", candidates),
		GroupID:  groupID,
		Fallback: fallback,
	}
}

// NewExternalDataMissingError creates the skip-group outcome for a span
// with no analysis results.
func NewExternalDataMissingError(groupID, spanID string) *DesignError {
	return &DesignError{
		Code:    ErrCodeExternalDataMissing,
		Message: "required steel area not available for span",
		GroupID: groupID,
		SpanID:  spanID,
	}
}
