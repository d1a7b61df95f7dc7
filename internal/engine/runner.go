/*
PURPOSE:
  High-level runner that orchestrates the benchmarking process.
  Loops through scenarios and runs the probe sequence for each one.

REQUIREMENTS:
  User-specified:
  - Snapshot -> allocation -> allocate+free -> writes -> reads -> snapshot.
  - Page faults reported as the scenario-local delta.
  - One progress line per scenario.

  Implementation-discovered:
  - Probes and sampler are injectable so the sequence can be tested without
    allocating real buffers.
  - Results flow to any number of sinks (JSON artifact, CSV, terminal table).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/probe, internal/sampler, internal/output

ERROR HANDLING:
  - Snapshot unavailability degrades page faults to null.
  - Sink write failures are logged and the run continues (resilience).
  - A probe fault is not recovered; it takes the process down.

IMPLEMENTATION RULES:
  - Strictly sequential. Running probes or scenarios concurrently would mix
    their page faults and timings in the same process.
  - Never sample between probes.

USAGE:
  r := engine.New(cfg)
  results := r.Run(scenarios, jsonWriter, csvWriter)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/probe/probe.go
  - internal/sampler/sampler.go

MAINTENANCE:
  - Keep probe order aligned with the Node.js/Java suites.
*/

package engine

import (
	"errors"
	"runtime"
	"time"

	"github.com/daryltucker/memory-runner/internal/config"
	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/daryltucker/memory-runner/internal/probe"
	"github.com/daryltucker/memory-runner/internal/sampler"
)

// Sink consumes results as they are produced.
type Sink interface {
	Write(r model.Result) error
}

// Runner executes scenarios.
type Runner struct {
	Probes         probe.Suite
	Sampler        sampler.Sampler
	Now            func() time.Time
	RuntimeLabel   string
	RuntimeVersion string
}

// New creates a Runner with the real probes and the OS sampler.
func New(cfg *config.Config) *Runner {
	return &Runner{
		Probes:         probe.Default(),
		Sampler:        sampler.OS{},
		Now:            time.Now,
		RuntimeLabel:   cfg.RuntimeLabel,
		RuntimeVersion: runtime.Version(),
	}
}

// Run executes the scenarios in order and returns their results in the same order.
func (r *Runner) Run(scenarios []model.Scenario, sinks ...Sink) []model.Result {
	results := make([]model.Result, 0, len(scenarios))
	for _, s := range scenarios {
		res := r.RunScenario(s)
		results = append(results, res)

		for _, sink := range sinks {
			if err := sink.Write(res); err != nil {
				output.Logger.Error("Failed to write result", "scenario", s.ID, "error", err)
			}
		}
	}
	return results
}

// RunScenario runs the probe sequence for one scenario.
func (r *Runner) RunScenario(s model.Scenario) model.Result {
	sizeBytes := s.SizeBytes()
	output.Logger.Info("Running scenario",
		"scenario", s.ID,
		"size_mb", s.SizeMB,
		"iterations", s.Iterations,
	)

	before := r.capture()

	m := model.Metrics{
		AllocationSeconds:      r.Probes.Allocation(sizeBytes, s.Iterations),
		AllocateAndFreeSeconds: r.Probes.AllocateAndFree(sizeBytes, s.Iterations),
		WritesSeconds:          r.Probes.Writes(sizeBytes, s.Iterations),
		ReadsSeconds:           r.Probes.Reads(sizeBytes, s.Iterations),
	}

	after := r.capture()
	faults := sampler.Delta(before, after)
	m.PageFaultsMinor = faults.Minor
	m.PageFaultsMajor = faults.Major

	res := model.Result{
		ScenarioID:     s.ID,
		SizeMB:         s.SizeMB,
		Iterations:     s.Iterations,
		Metrics:        m,
		Timestamp:      model.FormatTimestamp(r.Now()),
		RuntimeLabel:   r.RuntimeLabel,
		RuntimeVersion: r.RuntimeVersion,
	}

	output.Logger.Info("Scenario complete",
		"scenario", s.ID,
		"allocation_s", m.AllocationSeconds,
		"allocate_free_s", m.AllocateAndFreeSeconds,
		"writes_s", m.WritesSeconds,
		"reads_s", m.ReadsSeconds,
		"page_faults_minor", faultAttr(m.PageFaultsMinor),
		"page_faults_major", faultAttr(m.PageFaultsMajor),
	)
	return res
}

func (r *Runner) capture() *sampler.Snapshot {
	snap, err := r.Sampler.Capture()
	if err != nil {
		if !errors.Is(err, sampler.ErrSnapshotUnavailable) {
			output.Logger.Debug("Resource snapshot failed", "error", err)
		}
		return nil
	}
	return snap
}

func faultAttr(v *int64) any {
	if v == nil {
		return "n/a"
	}
	return *v
}
