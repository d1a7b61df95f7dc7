/*
PURPOSE:
  Compares two result sets produced independently (usually by two runtimes)
  and derives per-scenario speedups, per-metric averages and a win tally.

REQUIREMENTS:
  User-specified:
  - Pair results by position.
  - ratio = A/B. ratio > 1 means B is faster by ratio, otherwise A is faster by 1/ratio.
  - Summary ratios come from the per-side means, not from averaged ratios.
  - Page faults are reported raw, without a ratio.

  Implementation-discovered:
  - Equal values read "A is 1.00x faster"; the tally gives mean ties to B.
    Both are kept as-is from the Node.js comparison script.
  - Length mismatch policy is explicit: Strict fails, Truncate pairs the prefix.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (compare)
  - Consumes: internal/model.Result
  - Output rendered by: internal/output/report.go

ERROR HANDLING:
  - ErrMismatchedRunLength under the Strict policy.
  - ErrEmptyRun when either side has no results.

IMPLEMENTATION RULES:
  - Pure; never mutates its inputs.

USAGE:
  cmp, err := compare.Compare(a, b, compare.Options{})

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/report.go

MAINTENANCE:
  - Add new timed metrics to Metrics.
*/

package compare

import (
	"errors"
	"fmt"

	"github.com/daryltucker/memory-runner/internal/model"
)

var (
	// ErrMismatchedRunLength is returned under PolicyStrict when the runs differ in length.
	ErrMismatchedRunLength = errors.New("result sets have different lengths")
	// ErrEmptyRun is returned when either side has nothing to compare.
	ErrEmptyRun = errors.New("result set is empty")
)

// Policy decides what happens when the two runs differ in length.
type Policy int

const (
	// PolicyStrict fails with ErrMismatchedRunLength.
	PolicyStrict Policy = iota
	// PolicyTruncate compares the common prefix and marks the comparison truncated.
	PolicyTruncate
)

// Side identifies one of the compared runs.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
	// SideNone is only used by Summary.Leader for an even tally.
	SideNone Side = ""
)

// Metric names a timed metric by its JSON key.
type Metric string

const (
	Allocation      Metric = "allocationSeconds"
	AllocateAndFree Metric = "allocateAndFreeSeconds"
	Writes          Metric = "writesSeconds"
	Reads           Metric = "readsSeconds"
)

// Metrics lists the timed metrics in report order.
var Metrics = []Metric{Allocation, AllocateAndFree, Writes, Reads}

// Label is the human-readable metric name.
func (m Metric) Label() string {
	switch m {
	case Allocation:
		return "Allocation"
	case AllocateAndFree:
		return "Allocate + free"
	case Writes:
		return "Writes"
	case Reads:
		return "Reads"
	}
	return string(m)
}

// Value extracts the metric from a Metrics record.
func (m Metric) Value(ms model.Metrics) float64 {
	switch m {
	case Allocation:
		return ms.AllocationSeconds
	case AllocateAndFree:
		return ms.AllocateAndFreeSeconds
	case Writes:
		return ms.WritesSeconds
	case Reads:
		return ms.ReadsSeconds
	}
	return 0
}

// Speedup describes how two timings relate.
type Speedup struct {
	// Ratio is a/b. Zero when not determinable.
	Ratio        float64 `json:"ratio"`
	Determinable bool    `json:"determinable"`
	Faster       Side    `json:"faster,omitempty"`

	// Factor is how many times faster the Faster side is.
	Factor float64 `json:"factor,omitempty"`
}

// NewSpeedup computes the speedup between a and b. A zero value on either
// side makes it not determinable. Equal values attribute a 1.00 factor to A.
func NewSpeedup(a, b float64) Speedup {
	if a == 0 || b == 0 {
		return Speedup{}
	}
	ratio := a / b
	if ratio > 1 {
		return Speedup{Ratio: ratio, Determinable: true, Faster: SideB, Factor: ratio}
	}
	return Speedup{Ratio: ratio, Determinable: true, Faster: SideA, Factor: 1 / ratio}
}

// Describe renders the speedup using the given side labels, e.g. "B is 2.00× faster".
func (s Speedup) Describe(labelA, labelB string) string {
	if !s.Determinable {
		return "n/d"
	}
	label := labelA
	if s.Faster == SideB {
		label = labelB
	}
	return fmt.Sprintf("%s is %.2f× faster", label, s.Factor)
}

// MetricComparison is one metric of one scenario pair.
type MetricComparison struct {
	Metric  Metric  `json:"metric"`
	A       float64 `json:"valueA"`
	B       float64 `json:"valueB"`
	Speedup Speedup `json:"speedup"`
}

// PageFaults holds the raw counts of both sides. Nil means not available.
type PageFaults struct {
	MinorA *int64 `json:"minorA"`
	MajorA *int64 `json:"majorA"`
	MinorB *int64 `json:"minorB"`
	MajorB *int64 `json:"majorB"`
}

// Row is the comparison of one positional pair.
type Row struct {
	ScenarioID string             `json:"scenarioId"`
	SizeMB     float64            `json:"sizeMb"`
	Iterations int                `json:"iterations"`
	Metrics    []MetricComparison `json:"metrics"`
	PageFaults PageFaults         `json:"pageFaults"`

	// IDMismatch is set when the pair's scenario ids differ.
	IDMismatch  bool   `json:"idMismatch,omitempty"`
	ScenarioIDB string `json:"scenarioIdB,omitempty"`
}

// MetricSummary aggregates one metric across all pairs.
type MetricSummary struct {
	Metric  Metric  `json:"metric"`
	MeanA   float64 `json:"meanA"`
	MeanB   float64 `json:"meanB"`
	Speedup Speedup `json:"speedup"`
	Winner  Side    `json:"winner"`
}

// Summary holds the aggregate comparison.
type Summary struct {
	Metrics []MetricSummary `json:"metrics"`
	WinsA   int             `json:"winsA"`
	WinsB   int             `json:"winsB"`
}

// Leader returns the side with more metric wins, or SideNone on an even tally.
func (s Summary) Leader() Side {
	switch {
	case s.WinsA > s.WinsB:
		return SideA
	case s.WinsB > s.WinsA:
		return SideB
	}
	return SideNone
}

// Comparison is the full result of comparing two runs.
type Comparison struct {
	LabelA   string `json:"labelA"`
	LabelB   string `json:"labelB"`
	VersionA string `json:"versionA"`
	VersionB string `json:"versionB"`
	LenA     int    `json:"lenA"`
	LenB     int    `json:"lenB"`

	// Truncated is set when PolicyTruncate dropped unpaired results.
	Truncated bool `json:"truncated,omitempty"`

	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// Options configures Compare.
type Options struct {
	Policy Policy

	// LabelA and LabelB default to the runtime labels of the first records.
	// Equal labels get an " (A)" / " (B)" suffix.
	LabelA string
	LabelB string
}

// Compare pairs a and b positionally and computes the comparison.
func Compare(a, b []model.Result, opts Options) (*Comparison, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyRun
	}

	n := len(a)
	if len(a) != len(b) {
		if opts.Policy != PolicyTruncate {
			return nil, fmt.Errorf("%w: %d vs %d", ErrMismatchedRunLength, len(a), len(b))
		}
		n = min(len(a), len(b))
	}

	cmp := &Comparison{
		LabelA:    firstNonEmpty(opts.LabelA, a[0].RuntimeLabel, "A"),
		LabelB:    firstNonEmpty(opts.LabelB, b[0].RuntimeLabel, "B"),
		VersionA:  a[0].RuntimeVersion,
		VersionB:  b[0].RuntimeVersion,
		Truncated: len(a) != len(b),
		LenA:      len(a),
		LenB:      len(b),
		Rows:      make([]Row, 0, n),
	}
	if cmp.LabelA == cmp.LabelB {
		cmp.LabelA += " (A)"
		cmp.LabelB += " (B)"
	}

	for i := 0; i < n; i++ {
		cmp.Rows = append(cmp.Rows, compareRow(a[i], b[i]))
	}
	cmp.Summary = summarize(a[:n], b[:n])
	return cmp, nil
}

func compareRow(a, b model.Result) Row {
	row := Row{
		ScenarioID: a.ScenarioID,
		SizeMB:     a.SizeMB,
		Iterations: a.Iterations,
		Metrics:    make([]MetricComparison, 0, len(Metrics)),
		PageFaults: PageFaults{
			MinorA: a.Metrics.PageFaultsMinor,
			MajorA: a.Metrics.PageFaultsMajor,
			MinorB: b.Metrics.PageFaultsMinor,
			MajorB: b.Metrics.PageFaultsMajor,
		},
	}
	if a.ScenarioID != b.ScenarioID {
		row.IDMismatch = true
		row.ScenarioIDB = b.ScenarioID
	}

	for _, m := range Metrics {
		va, vb := m.Value(a.Metrics), m.Value(b.Metrics)
		row.Metrics = append(row.Metrics, MetricComparison{
			Metric:  m,
			A:       va,
			B:       vb,
			Speedup: NewSpeedup(va, vb),
		})
	}
	return row
}

// summarize assumes len(a) == len(b) > 0.
func summarize(a, b []model.Result) Summary {
	var s Summary
	for _, m := range Metrics {
		meanA, meanB := mean(a, m), mean(b, m)

		// Strict less-than: a tie counts as a win for B.
		winner := SideB
		if meanA < meanB {
			winner = SideA
			s.WinsA++
		} else {
			s.WinsB++
		}

		s.Metrics = append(s.Metrics, MetricSummary{
			Metric:  m,
			MeanA:   meanA,
			MeanB:   meanB,
			Speedup: NewSpeedup(meanA, meanB),
			Winner:  winner,
		})
	}
	return s
}

func mean(results []model.Result, m Metric) float64 {
	var sum float64
	for _, r := range results {
		sum += m.Value(r.Metrics)
	}
	return sum / float64(len(results))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
