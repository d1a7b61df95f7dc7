package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/daryltucker/memory-runner/internal/compare"
	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/daryltucker/memory-runner/internal/scenario"
	"github.com/daryltucker/memory-runner/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values and captures stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func artifact(label string, allocation ...float64) []model.Result {
	var results []model.Result
	for i, a := range allocation {
		results = append(results, model.Result{
			ScenarioID: []string{"small", "medium", "large"}[i],
			SizeMB:     float64(i + 1),
			Iterations: 10,
			Metrics: model.Metrics{
				AllocationSeconds:      a,
				AllocateAndFreeSeconds: 0.5,
				WritesSeconds:          0.5,
				ReadsSeconds:           0.5,
			},
			Timestamp:      "2026-10-19T08:00:00.000Z",
			RuntimeLabel:   label,
			RuntimeVersion: label + "-1",
		})
	}
	return results
}

func TestRun_AdHocWithAllSinks(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	db := filepath.Join(dir, "history.db")
	out, err := execute(t, "run",
		"--sizes", "0.01,0.02",
		"--iterations", "1",
		"--report-dir", "reports",
		"-o", "adhoc.json",
		"--runtime-label", "go-test",
		"--csv", "export/results.csv",
		"--metrics-file", "memory.prom",
		"--history", db,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario ad-hoc-0.01mb")
	assert.Contains(t, out, "Results saved to "+filepath.Join("reports", "adhoc.json"))

	results, err := output.LoadResults(filepath.Join(dir, "reports", "adhoc.json"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ad-hoc-0.01mb", results[0].ScenarioID)
	assert.Equal(t, "ad-hoc-0.02mb", results[1].ScenarioID)
	assert.Equal(t, 1, results[0].Iterations)
	assert.Equal(t, "go-test", results[0].RuntimeLabel)

	assert.FileExists(t, filepath.Join(dir, "export", "results.csv"))
	prom, err := os.ReadFile(filepath.Join(dir, "memory.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "memory_runner_probe_seconds")

	h, err := store.Open(testContext(t), db)
	require.NoError(t, err)
	runs, err := h.Runs(testContext(t))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Scenarios)

	out, err = execute(t, "history", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)

	exported := filepath.Join(dir, "exported.json")
	out, err = execute(t, "history", "export", runs[0].ID, "--db", db, "-o", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 results")

	again, err := output.LoadResults(exported)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestRun_ResolutionErrorsAbortBeforeMeasuring(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := execute(t, "run")
	assert.ErrorIs(t, err, scenario.ErrNoScenariosConfigured)

	writeFile(t, filepath.Join(dir, "memory_runner.yaml"), `
scenarios:
  - id: a
    sizeMb: 0.01
    iterations: 1
  - id: b
    sizeMb: 0.02
    iterations: 1
`)
	_, err = execute(t, "run", "--scenarios", "a,b,z")
	var unknown *scenario.UnknownScenarioError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"z"}, unknown.IDs)

	assert.NoDirExists(t, filepath.Join(dir, "reports"))
}

func TestRun_ConfiguredSubsetKeepsConfigOrder(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "config", "memory-scenarios.json"), `[
  {"id": "a", "sizeMb": 0.01, "iterations": 1},
  {"id": "b", "sizeMb": 0.02, "iterations": 1},
  {"id": "c", "sizeMb": 0.03, "iterations": 1}
]`)

	_, err := execute(t, "run", "--scenarios", "c,a", "-o", filepath.Join(dir, "subset.json"))
	require.NoError(t, err)

	results, err := output.LoadResults(filepath.Join(dir, "subset.json"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ScenarioID)
	assert.Equal(t, "c", results[1].ScenarioID)
}

func TestListScenarios(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "memory_runner.yaml"), `
scenarios:
  - id: small
    sizeMb: 1
    iterations: 100
  - id: large
    sizeMb: 256
    iterations: 5
`)

	out, err := execute(t, "list-scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenarios (memory_runner.yaml)")
	assert.Contains(t, out, "small")
	assert.Contains(t, out, "256 MiB")

	out, err = execute(t, "list-scenarios", "--sizes", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "ad-hoc-4mb")
	assert.Contains(t, out, "50")
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	a := filepath.Join(dir, "go.json")
	b := filepath.Join(dir, "node.json")
	require.NoError(t, output.WriteResults(a, artifact("go", 2, 2)))
	require.NoError(t, output.WriteResults(b, artifact("node", 1, 1)))

	out, err := execute(t, "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "Memory comparison: go vs node")
	assert.Contains(t, out, "node is 2.00× faster")
	assert.Contains(t, out, "Score: go 0 x 4 node")

	out, err = execute(t, "compare", a, b, "--json", "--label-a", "baseline")
	require.NoError(t, err)
	var cmp compare.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &cmp))
	assert.Equal(t, "baseline", cmp.LabelA)
	assert.Equal(t, "node", cmp.LabelB)
	assert.Len(t, cmp.Rows, 2)
}

func TestCompare_IgnoresBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "memory_runner.yaml"), "scenarios: [\n  - id: {")
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, output.WriteResults(a, artifact("go", 1)))
	require.NoError(t, output.WriteResults(b, artifact("node", 1)))

	_, err := execute(t, "run", "--sizes", "1")
	require.Error(t, err)

	out, err := execute(t, "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "Memory comparison: go vs node")
}

func TestCompare_Errors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	a := filepath.Join(dir, "a.json")
	short := filepath.Join(dir, "short.json")
	require.NoError(t, output.WriteResults(a, artifact("go", 1, 1)))
	require.NoError(t, output.WriteResults(short, artifact("node", 1)))

	_, err := execute(t, "compare", a, short)
	assert.ErrorIs(t, err, compare.ErrMismatchedRunLength)

	out, err := execute(t, "compare", a, short, "--truncate")
	require.NoError(t, err)
	assert.Contains(t, out, "compared the first 1 scenarios")

	missing := filepath.Join(dir, "missing.json")
	_, err = execute(t, "compare", a, missing)
	var loadErr *output.ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, missing, loadErr.Path)

	_, err = execute(t, "compare", a)
	assert.Error(t, err)
}

func TestHistory_NoDatabase(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := execute(t, "history", "list")
	assert.ErrorIs(t, err, errNoHistoryDB)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "memory-runner dev")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// testContext returns a context canceled when the test finishes
// (equivalent of testing.T.Context, Go 1.24+).
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
