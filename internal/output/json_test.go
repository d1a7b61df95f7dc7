package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []model.Result {
	return []model.Result{
		{
			ScenarioID: "small",
			SizeMB:     16,
			Iterations: 50,
			Metrics: model.Metrics{
				AllocationSeconds:      0.012345678901,
				AllocateAndFreeSeconds: 0.02,
				WritesSeconds:          0.5,
				ReadsSeconds:           0.0001,
				PageFaultsMinor:        model.Int64Ptr(4096),
				PageFaultsMajor:        model.Int64Ptr(0),
			},
			Timestamp:      "2026-10-19T08:00:00.000Z",
			RuntimeLabel:   "go",
			RuntimeVersion: "go1.26.2",
		},
		{
			ScenarioID: "ad-hoc-0.5mb",
			SizeMB:     0.5,
			Iterations: 3,
			Metrics: model.Metrics{
				AllocationSeconds: 1,
			},
			Timestamp:      "2026-10-19T08:00:01.000Z",
			RuntimeLabel:   "go",
			RuntimeVersion: "go1.26.2",
		},
	}
}

func TestResolveOutputPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 5, 9, 42_000_000, time.UTC)
	abs := filepath.Join(t.TempDir(), "abs.json")

	assert.Equal(t, filepath.Join("reports", "memory", "2026-10-19T08-05-09-042Z-memory-test.json"),
		ResolveOutputPath(filepath.Join("reports", "memory"), "", now))

	// Local times are named in UTC; runs a millisecond apart get distinct names.
	local := now.In(time.FixedZone("CEST", 2*60*60))
	assert.Equal(t, ResolveOutputPath("r", "", now), ResolveOutputPath("r", "", local))
	assert.NotEqual(t, ResolveOutputPath("r", "", now), ResolveOutputPath("r", "", now.Add(time.Millisecond)))
	assert.Equal(t, abs, ResolveOutputPath("reports", abs, now))
	assert.Equal(t, filepath.Join("reports", "go-final.json"), ResolveOutputPath("reports", "go-final.json", now))
}

func TestJSONWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.json")
	w := NewJSONWriter(path)
	assert.Equal(t, path, w.Path())

	in := sampleResults()
	for _, r := range in {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())

	out, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteResults_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteResults(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestLoadResults_Failures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`[{"scenarioId": `), 0644))
	missing := filepath.Join(dir, "missing.json")

	for _, path := range []string{corrupt, missing} {
		_, err := LoadResults(path)
		require.Error(t, err)

		var loadErr *ArtifactLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, path, loadErr.Path)
		assert.Contains(t, err.Error(), path)
	}

	_, err := LoadResults(missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadResults_NodeArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodejs-final.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {
    "scenarioId": "small",
    "sizeMb": 16,
    "iterations": 50,
    "metrics": {
      "allocationSeconds": 0.1,
      "allocateAndFreeSeconds": 0.2,
      "writesSeconds": 0.3,
      "readsSeconds": 0.4,
      "pageFaultsMinor": 1200,
      "pageFaultsMajor": null
    },
    "timestamp": "2025-01-01T00:00:00.000Z",
    "nodeVersion": "v22.11.0"
  }
]`), 0644))

	results, err := LoadResults(path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "node", results[0].RuntimeLabel)
	assert.Equal(t, "v22.11.0", results[0].RuntimeVersion)
	assert.Equal(t, int64(1200), *results[0].Metrics.PageFaultsMinor)
	assert.Nil(t, results[0].Metrics.PageFaultsMajor)
}
