/*
PURPOSE:
  Persists and loads result artifacts: one JSON array of results per run.
  This is the file `compare` reads back, possibly from another runtime.

REQUIREMENTS:
  User-specified:
  - One file per run, results in scenario order.
  - Default name derived from the run timestamp; --output overrides it,
    relative names land in the report directory.

  Implementation-discovered:
  - A JSON array (not JSON Lines) keeps artifacts interchangeable with the
    Node.js/Java suites.
  - Comparison inputs are read in full before comparing.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (as a Sink), internal/cli (compare, history)
  - Consumes: internal/model.Result

ERROR HANDLING:
  - Returns error on directory creation or write failure.
  - LoadResults wraps every failure in *ArtifactLoadError with the path.

IMPLEMENTATION RULES:
  - Use encoding/json with indentation.
  - Thread-safe.

USAGE:
  w := output.NewJSONWriter(output.ResolveOutputPath(dir, name, time.Now()))
  w.Write(result)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Keep the record layout stable; other runtimes read these files.
*/

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/daryltucker/memory-runner/internal/model"
)

// ArtifactLoadError reports a missing or corrupt result artifact.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load results from %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// ResolveOutputPath decides where a run's artifact is written.
// An empty name yields "<reportDir>/<UTC timestamp with ms>-memory-test.json", an absolute
// name is used as-is, and a relative name is placed under reportDir.
func ResolveOutputPath(reportDir, name string, now time.Time) string {
	if name == "" {
		stamp := strings.Replace(now.UTC().Format("2006-01-02T15-04-05.000Z"), ".", "-", 1)
		return filepath.Join(reportDir, stamp+"-memory-test.json")
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(reportDir, name)
}

// JSONWriter collects results and writes them as one JSON array on Close.
type JSONWriter struct {
	path    string
	results []model.Result
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter for path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Path returns the artifact path.
func (jw *JSONWriter) Path() string {
	return jw.path
}

// Write appends a result. Order of calls is the order in the artifact.
func (jw *JSONWriter) Write(r model.Result) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.results = append(jw.results, r)
	return nil
}

// Close writes the collected results to disk.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return WriteResults(jw.path, jw.results)
}

// WriteResults writes results as an indented JSON array, creating the parent directory.
func WriteResults(path string, results []model.Result) error {
	if results == nil {
		results = []model.Result{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results to %s: %w", path, err)
	}
	return nil
}

// LoadResults reads a whole artifact.
func LoadResults(path string) ([]model.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}

	var results []model.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return results, nil
}
