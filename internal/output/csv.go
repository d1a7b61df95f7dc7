/*
PURPOSE:
  Writes benchmark results to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Optional CSV export (--csv) for spreadsheets.

  Implementation-discovered:
  - Page faults print as empty cells when unavailable, never as 0.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (as a Sink)
  - Consumes: internal/model.Result

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (a crashed run keeps finished scenarios).

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(result)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when Result struct changes.
*/

package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/daryltucker/memory-runner/internal/model"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{
	"scenario_id", "size_mb", "iterations", "timestamp",
	"allocation_s", "allocate_free_s", "writes_s", "reads_s",
	"page_faults_minor", "page_faults_major",
	"runtime_label", "runtime_version",
}

// CSVWriter handles writing results to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single result to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.Result) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.ScenarioID,
		strconv.FormatFloat(r.SizeMB, 'f', -1, 64),
		strconv.Itoa(r.Iterations),
		r.Timestamp,
		seconds(r.Metrics.AllocationSeconds),
		seconds(r.Metrics.AllocateAndFreeSeconds),
		seconds(r.Metrics.WritesSeconds),
		seconds(r.Metrics.ReadsSeconds),
		optionalCount(r.Metrics.PageFaultsMinor),
		optionalCount(r.Metrics.PageFaultsMajor),
		r.RuntimeLabel,
		r.RuntimeVersion,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func optionalCount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
