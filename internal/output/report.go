/*
PURPOSE:
  Terminal rendering of scenario results and run comparisons.

REQUIREMENTS:
  User-specified:
  - Per-scenario table after each run.
  - Comparison: per-scenario tables, averages with the win tally, and a
    page-fault breakdown per size.

  Implementation-discovered:
  - lipgloss drops colors on its own when stdout is not a terminal.
  - Unavailable page faults render as "n/d", never as 0.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run, compare)
  - Consumes: internal/model.Result, internal/compare.Comparison

ERROR HANDLING:
  - Returns write errors from the underlying writer.

IMPLEMENTATION RULES:
  - Formatting only. No comparison logic lives here.

USAGE:
  output.RenderComparison(os.Stdout, cmp)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/compare/compare.go

MAINTENANCE:
  - Update when compare adds new fields.
*/

package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/daryltucker/memory-runner/internal/compare"
	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/dustin/go-humanize"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWin    = lipgloss.Color("#2CD7C7")
	colorWarn   = lipgloss.Color("#F4D03F")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorWin)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// RenderTable writes a plain bordered table with an optional title.
func RenderTable(w io.Writer, title string, headers []string, rows [][]string) error {
	t := newTable(headers...).Rows(rows...)
	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatSeconds renders a timing the way every report does.
func FormatSeconds(v float64) string {
	return fmt.Sprintf("%.4f s", v)
}

// FormatCount renders an optional counter with thousands separators.
func FormatCount(v *int64) string {
	if v == nil {
		return "n/d"
	}
	return humanize.Comma(*v)
}

func formatSize(sizeMB float64) string {
	return humanize.IBytes(uint64(model.BytesFromMB(sizeMB)))
}

// ScenarioReporter prints one table per finished scenario. It implements engine.Sink.
type ScenarioReporter struct {
	W io.Writer
}

// Write renders r.
func (sr ScenarioReporter) Write(r model.Result) error {
	t := newTable("Probe", "Result").
		Row("Allocation", FormatSeconds(r.Metrics.AllocationSeconds)).
		Row("Allocate + free", FormatSeconds(r.Metrics.AllocateAndFreeSeconds)).
		Row("Writes", FormatSeconds(r.Metrics.WritesSeconds)).
		Row("Reads", FormatSeconds(r.Metrics.ReadsSeconds)).
		Row("Page faults (minor)", FormatCount(r.Metrics.PageFaultsMinor)).
		Row("Page faults (major)", FormatCount(r.Metrics.PageFaultsMajor))

	title := titleStyle.Render(fmt.Sprintf("Scenario %s", r.ScenarioID)) +
		mutedStyle.Render(fmt.Sprintf(" (%s x %d iterations)", formatSize(r.SizeMB), r.Iterations))
	_, err := fmt.Fprintf(sr.W, "\n%s\n%s\n", title, t.String())
	return err
}

// RenderComparison prints the full comparison report.
func RenderComparison(w io.Writer, cmp *compare.Comparison) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Memory comparison: %s vs %s", cmp.LabelA, cmp.LabelB)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s: %s | %s: %s", cmp.LabelA, orND(cmp.VersionA), cmp.LabelB, orND(cmp.VersionB))))
	b.WriteString("\n")
	if cmp.Truncated {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Runs differ in length (%d vs %d); compared the first %d scenarios.", cmp.LenA, cmp.LenB, len(cmp.Rows))))
		b.WriteString("\n")
	}

	for _, row := range cmp.Rows {
		writeRow(&b, cmp, row)
	}
	writeSummary(&b, cmp)
	writePageFaultAnalysis(&b, cmp)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRow(b *strings.Builder, cmp *compare.Comparison, row compare.Row) {
	t := newTable("Metric", cmp.LabelA, cmp.LabelB, "Comparison")
	for _, mc := range row.Metrics {
		t.Row(mc.Metric.Label(), FormatSeconds(mc.A), FormatSeconds(mc.B), mc.Speedup.Describe(cmp.LabelA, cmp.LabelB))
	}
	pf := row.PageFaults
	t.Row("Page faults (minor)", FormatCount(pf.MinorA), FormatCount(pf.MinorB), "")
	t.Row("Page faults (major)", FormatCount(pf.MajorA), FormatCount(pf.MajorB), "")

	fmt.Fprintf(b, "\n%s%s\n",
		titleStyle.Render("Scenario "+row.ScenarioID),
		mutedStyle.Render(fmt.Sprintf(" (%s x %d iterations)", formatSize(row.SizeMB), row.Iterations)))
	if row.IDMismatch {
		b.WriteString(warnStyle.Render(fmt.Sprintf("paired by position with %s scenario %q", cmp.LabelB, row.ScenarioIDB)))
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, cmp *compare.Comparison) {
	t := newTable("Metric", "Mean "+cmp.LabelA, "Mean "+cmp.LabelB, "Comparison", "Winner")
	for _, ms := range cmp.Summary.Metrics {
		t.Row(
			ms.Metric.Label(),
			FormatSeconds(ms.MeanA),
			FormatSeconds(ms.MeanB),
			ms.Speedup.Describe(cmp.LabelA, cmp.LabelB),
			winStyle.Render(sideLabel(cmp, ms.Winner)),
		)
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Performance summary"))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(b, "Score: %s %d x %d %s\n", cmp.LabelA, cmp.Summary.WinsA, cmp.Summary.WinsB, cmp.LabelB)

	switch leader := cmp.Summary.Leader(); leader {
	case compare.SideNone:
		b.WriteString(winStyle.Render("Tie: both runtimes won the same number of metrics."))
	default:
		b.WriteString(winStyle.Render(sideLabel(cmp, leader) + " was faster in most metrics."))
	}
	b.WriteString("\n")
}

func writePageFaultAnalysis(b *strings.Builder, cmp *compare.Comparison) {
	t := newTable("Size", "Scenario", cmp.LabelA+" minor", cmp.LabelA+" major", cmp.LabelB+" minor", cmp.LabelB+" major")
	for _, row := range cmp.Rows {
		pf := row.PageFaults
		t.Row(
			strconv.FormatFloat(row.SizeMB, 'f', -1, 64)+" MB",
			row.ScenarioID,
			FormatCount(pf.MinorA), FormatCount(pf.MajorA),
			FormatCount(pf.MinorB), FormatCount(pf.MajorB),
		)
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Page faults by size"))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Minor: page mapped without backing-store I/O. Major: page fetched from disk or swap."))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Counts come from each runtime's own accounting and are not directly comparable."))
	b.WriteString("\n")
}

func sideLabel(cmp *compare.Comparison, s compare.Side) string {
	if s == compare.SideA {
		return cmp.LabelA
	}
	return cmp.LabelB
}

func orND(s string) string {
	if s == "" {
		return "n/d"
	}
	return s
}
