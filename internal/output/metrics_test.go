package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	c := NewMetricsCollector()
	for _, r := range sampleResults() {
		require.NoError(t, c.Write(r))
	}

	assert.Equal(t, 0.5, testutil.ToFloat64(c.probe.WithLabelValues("small", "go", "writes")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(c.pageFaults.WithLabelValues("small", "go", "minor")))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.sizeMB.WithLabelValues("ad-hoc-0.5mb", "go", "3")))

	// Two scenarios x four probes; page faults only for the scenario that has them.
	assert.Equal(t, 8, testutil.CollectAndCount(c.probe))
	assert.Equal(t, 2, testutil.CollectAndCount(c.pageFaults))
}

func TestMetricsCollector_WriteTextfile(t *testing.T) {
	c := NewMetricsCollector()
	require.NoError(t, c.Write(sampleResults()[0]))

	path := filepath.Join(t.TempDir(), "memory.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `memory_runner_probe_seconds{probe="reads",runtime="go",scenario="small"} 0.0001`)
	assert.Contains(t, string(data), `memory_runner_page_faults{kind="major",runtime="go",scenario="small"} 0`)
}
