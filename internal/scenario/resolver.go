/*
PURPOSE:
  Turns configured scenarios and CLI overrides into the ordered list of
  scenarios a run executes.

REQUIREMENTS:
  User-specified:
  - --sizes builds ad-hoc scenarios ("ad-hoc-<size>mb"), default 50 iterations.
  - --scenarios selects configured scenarios by id.
  - Otherwise run every configured scenario.

  Implementation-discovered:
  - Unknown ids are reported together, in one error.
  - Selection keeps configuration order, not the order ids were requested in.
  - Non-numeric, zero and negative sizes are dropped, not rejected.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run, list-scenarios)
  - Consumes: internal/model.Scenario

ERROR HANDLING:
  - ErrNoScenariosConfigured: empty configuration and no ad-hoc sizes.
  - *UnknownScenarioError: requested ids absent from configuration.

IMPLEMENTATION RULES:
  - Pure function of its inputs; never mutates the configured slice.

USAGE:
  scenarios, err := scenario.Resolve(cfg.Scenarios, scenario.Overrides{Sizes: "10,20"})

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/config/config.go
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new selection modes.
*/

package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/daryltucker/memory-runner/internal/model"
)

// DefaultIterations applies to ad-hoc scenarios when no iteration count is given.
const DefaultIterations = 50

// ErrNoScenariosConfigured is returned when there is nothing to run.
var ErrNoScenariosConfigured = errors.New("no scenarios configured")

// UnknownScenarioError lists every requested id with no configured match.
type UnknownScenarioError struct {
	IDs []string
}

func (e *UnknownScenarioError) Error() string {
	return "unknown scenarios: " + strings.Join(e.IDs, ", ")
}

// Overrides carries the raw CLI selection parameters.
type Overrides struct {
	// Sizes is a comma-separated list of sizes in MB. Triggers ad-hoc mode.
	Sizes string
	// Iterations applies to ad-hoc scenarios only. Zero means DefaultIterations.
	Iterations int
	// Scenarios is a comma-separated list of configured scenario ids.
	Scenarios string
}

// Resolve returns the scenarios to run. The result is never empty when err is nil.
func Resolve(configured []model.Scenario, o Overrides) ([]model.Scenario, error) {
	if strings.TrimSpace(o.Sizes) != "" {
		return adHoc(o.Sizes, o.Iterations)
	}

	if len(configured) == 0 {
		return nil, ErrNoScenariosConfigured
	}

	ids := splitList(o.Scenarios)
	if len(ids) == 0 {
		return append([]model.Scenario(nil), configured...), nil
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	var selected []model.Scenario
	known := make(map[string]bool, len(configured))
	for _, s := range configured {
		known[s.ID] = true
		if requested[s.ID] {
			selected = append(selected, s)
		}
	}

	var missing []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if !known[id] && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) > 0 {
		return nil, &UnknownScenarioError{IDs: missing}
	}

	return selected, nil
}

func adHoc(rawSizes string, iterations int) ([]model.Scenario, error) {
	if iterations < 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if iterations == 0 {
		iterations = DefaultIterations
	}

	var scenarios []model.Scenario
	seen := make(map[string]bool)
	for _, field := range splitList(rawSizes) {
		size, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(size) || size <= 0 || size >= model.MaxSizeMB {
			continue
		}
		// "10" and "10.0" name the same scenario; the first one wins.
		id := AdHocID(size)
		if seen[id] {
			continue
		}
		seen[id] = true
		scenarios = append(scenarios, model.Scenario{
			ID:         id,
			SizeMB:     size,
			Iterations: iterations,
		})
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: no usable sizes in %q", ErrNoScenariosConfigured, rawSizes)
	}
	return scenarios, nil
}

// AdHocID names a scenario synthesized from a CLI size.
func AdHocID(sizeMB float64) string {
	return "ad-hoc-" + strconv.FormatFloat(sizeMB, 'f', -1, 64) + "mb"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
