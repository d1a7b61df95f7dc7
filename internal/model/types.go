/*
PURPOSE:
  Defines the core data structures used throughout Memory Runner.
  These models represent scenarios, probe metrics and persisted results.

REQUIREMENTS:
  User-specified:
  - Record allocation, allocate+free, write and read timings in seconds.
  - Record minor/major page faults, null when the host cannot report them.
  - Track scenario id, size, iterations, timestamp and runtime identity.

  Implementation-discovered:
  - JSON keys must match the Node.js/Java suites so artifacts compare across runtimes.
  - Older artifacts carry nodeVersion/javaVersion instead of runtimeVersion.

ARCHITECTURE INTEGRATION:
  - Used by: internal/scenario, internal/engine, internal/compare, internal/output, internal/store
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Timestamps are ISO-8601 strings so a reload is byte-for-byte identical.

USAGE:
  res := model.Result{ScenarioID: "small", ...}

SELF-HEALING INSTRUCTIONS:
  - If new metrics are needed, add field and update CSV/Prometheus writers and compare.Metrics.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new metrics to capture.
*/

package model

import (
	"encoding/json"
	"math"
	"time"
)

// BytesPerMB converts scenario sizes (MB) into buffer sizes.
const BytesPerMB = 1024 * 1024

// MaxSizeMB is the exclusive upper bound on scenario sizes: larger buffers
// cannot be addressed with an int byte count.
const MaxSizeMB = float64(math.MaxInt) / BytesPerMB

// TimestampLayout is the ISO-8601 layout used for Result.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Scenario describes one memory workload: a buffer size and an iteration count.
type Scenario struct {
	ID         string  `json:"id" yaml:"id" validate:"required"`
	SizeMB     float64 `json:"sizeMb" yaml:"sizeMb" validate:"gt=0,lt=8796093022208"`
	Iterations int     `json:"iterations" yaml:"iterations" validate:"gt=0"`
}

// SizeBytes returns the buffer size the probes allocate for this scenario.
func (s Scenario) SizeBytes() int {
	return BytesFromMB(s.SizeMB)
}

// BytesFromMB converts a size in MB to bytes, truncating fractional bytes.
// Positive sizes never round down to an empty buffer. Sizes at or above
// MaxSizeMB are out of range and must be rejected before calling this.
func BytesFromMB(sizeMB float64) int {
	n := int(sizeMB * BytesPerMB)
	if n < 1 && sizeMB > 0 {
		return 1
	}
	return n
}

// Metrics holds the probe timings and page-fault deltas of one scenario.
type Metrics struct {
	AllocationSeconds      float64 `json:"allocationSeconds"`
	AllocateAndFreeSeconds float64 `json:"allocateAndFreeSeconds"`
	WritesSeconds          float64 `json:"writesSeconds"`
	ReadsSeconds           float64 `json:"readsSeconds"`
	PageFaultsMinor        *int64  `json:"pageFaultsMinor"` // nil: not available on this host
	PageFaultsMajor        *int64  `json:"pageFaultsMajor"`
}

// Result is the outcome of a single scenario run. It is the unit persisted and compared.
type Result struct {
	ScenarioID     string  `json:"scenarioId"`
	SizeMB         float64 `json:"sizeMb"`
	Iterations     int     `json:"iterations"`
	Metrics        Metrics `json:"metrics"`
	Timestamp      string  `json:"timestamp"`
	RuntimeLabel   string  `json:"runtimeLabel"`
	RuntimeVersion string  `json:"runtimeVersion"`
}

// FormatTimestamp renders t the way Result.Timestamp stores it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UnmarshalJSON accepts artifacts written by the Node.js and Java suites,
// which carry nodeVersion/javaVersion instead of runtimeLabel/runtimeVersion.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var aux struct {
		plain
		NodeVersion string `json:"nodeVersion"`
		JavaVersion string `json:"javaVersion"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Result(aux.plain)

	if r.RuntimeVersion == "" {
		switch {
		case aux.NodeVersion != "":
			r.RuntimeVersion = aux.NodeVersion
			if r.RuntimeLabel == "" {
				r.RuntimeLabel = "node"
			}
		case aux.JavaVersion != "":
			r.RuntimeVersion = aux.JavaVersion
			if r.RuntimeLabel == "" {
				r.RuntimeLabel = "java"
			}
		}
	}
	return nil
}

// Int64Ptr is a helper for optional counters.
func Int64Ptr(v int64) *int64 {
	return &v
}
