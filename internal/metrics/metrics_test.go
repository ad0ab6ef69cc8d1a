package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.runs, "runs counter should be initialized")
	assert.NotNil(t, collector.searchTime, "searchTime histogram should be initialized")

	// Collectors use their own registry, so building two must not panic
	assert.NotPanics(t, func() { NewCollector() })
}

func TestObserve(t *testing.T) {
	//** Arrange
	collector := NewCollector()
	stats := model.SearchStats{
		Variables:  4,
		Nodes:      12,
		Backtracks: 3,
		Checks:     20,
		MaxDepth:   4,
		SearchTime: 25 * time.Millisecond,
	}

	//** Act
	collector.Observe("backtracking", "solved", stats)
	collector.Observe("backtracking", "solved", stats)

	//** Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.runs.WithLabelValues("backtracking", "solved")))
	assert.Equal(t, 24.0, testutil.ToFloat64(collector.nodes))
	assert.Equal(t, 6.0, testutil.ToFloat64(collector.backtracks))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.variables))
}

func TestWriteTextfile(t *testing.T) {
	//** Arrange
	collector := NewCollector()
	collector.Observe("sat", "no_solution", model.SearchStats{Variables: 2})
	path := filepath.Join(t.TempDir(), "timetable.prom")

	//** Act
	err := collector.WriteTextfile(path)

	//** Assert
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `timetable_runs_total{outcome="no_solution",strategy="sat"} 1`)
	assert.Contains(t, string(content), "timetable_variables 2")
}
