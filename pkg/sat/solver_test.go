package sat

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDirectory = "../../test/cnfs/"

func TestGini(t *testing.T) {
	solver := NewGiniSolver()
	t.Run("Satisfiable instances", func(t *testing.T) {
		satisfiableExecution(t, solver)
	})

	t.Run("Unsatisfiable instances", func(t *testing.T) {
		unsatisfiableExecution(t, solver)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		//** Arrange
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sat := parseDIMACSFile(t, filepath.Join(testDirectory, "unsatisfiable", "pigeonhole_3_2.cnf"))

		//** Act
		solution, err := solver.Solve(ctx, sat)

		//** Assert
		// A trivial instance may be decided before the cancellation is observed
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
		assert.Nil(t, solution)
	})
}

func TestExecutable(t *testing.T) {
	path, err := exec.LookPath("kissat")
	if err != nil {
		t.Skip("kissat is not installed")
	}

	solver := NewExecutableSolver(path, "-q", "--relaxed")
	t.Run("Satisfiable instances", func(t *testing.T) {
		satisfiableExecution(t, solver)
	})

	t.Run("Unsatisfiable instances", func(t *testing.T) {
		unsatisfiableExecution(t, solver)
	})
}

func TestExecutableMissingBinary(t *testing.T) {
	//** Arrange
	solver := NewExecutableSolver(filepath.Join(t.TempDir(), "no-such-solver"))

	//** Act
	solution, err := solver.Solve(context.Background(), SAT{Variables: 1, Clauses: [][]int64{{1}}})

	//** Assert
	assert.Error(t, err)
	assert.Nil(t, solution)
}

func TestParseSolution(t *testing.T) {
	t.Run("Values split across lines", func(t *testing.T) {
		//** Arrange
		output := "c comment\ns SATISFIABLE\nv 1 -2 3\nv -4 5 0\n"

		//** Act
		solution, err := parseSolution(output)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, SATSolution{1, -2, 3, -4, 5}, solution)
	})

	t.Run("Malformed literal", func(t *testing.T) {
		//** Act
		_, err := parseSolution("v 1 x 0\n")

		//** Assert
		assert.Error(t, err)
	})
}

func TestDIMACS(t *testing.T) {
	//** Arrange
	sat := SAT{Variables: 3, Clauses: [][]int64{{1, -2}, {2, 3}, {-1}}}

	//** Act
	var builder strings.Builder
	err := sat.WriteDIMACS(&builder, "generated for a test")
	require.NoError(t, err)
	parsed, err := ParseDIMACS(strings.NewReader(builder.String()))

	//** Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(builder.String(), "c generated for a test\np cnf 3 3\n"))
	assert.Equal(t, sat, parsed)
	assert.Equal(t, "p cnf 3 3\n1 -2 0\n2 3 0\n-1 0\n", sat.ToDIMACS())
}

func TestSatisfies(t *testing.T) {
	sat := SAT{Variables: 2, Clauses: [][]int64{{1, 2}, {-1}}}

	assert.True(t, sat.Satisfies(SATSolution{-1, 2}))
	assert.False(t, sat.Satisfies(SATSolution{-1, -2}))
	assert.False(t, sat.Satisfies(SATSolution{1, -1, 2}))
}

func satisfiableExecution(t *testing.T, solver SATSolver) {
	for _, filename := range testFiles(t, "satisfiable") {
		t.Run(filepath.Base(filename), func(t *testing.T) {
			//** Arrange
			sat := parseDIMACSFile(t, filename)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			//** Act
			solution, err := solver.Solve(ctx, sat)

			//** Assert
			require.NoError(t, err)
			require.NotNil(t, solution)
			assert.Len(t, solution, int(sat.Variables))
			assert.True(t, sat.Satisfies(solution))
		})
	}
}

func unsatisfiableExecution(t *testing.T, solver SATSolver) {
	for _, filename := range testFiles(t, "unsatisfiable") {
		t.Run(filepath.Base(filename), func(t *testing.T) {
			//** Arrange
			sat := parseDIMACSFile(t, filename)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			//** Act
			solution, err := solver.Solve(ctx, sat)

			//** Assert
			require.NoError(t, err)
			assert.Nil(t, solution)
		})
	}
}

func testFiles(t *testing.T, kind string) []string {
	entries, err := os.ReadDir(filepath.Join(testDirectory, kind))
	require.NoError(t, err)

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, filepath.Join(testDirectory, kind, entry.Name()))
	}
	return files
}

func parseDIMACSFile(t *testing.T, filename string) SAT {
	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	sat, err := ParseDIMACS(file)
	require.NoError(t, err)
	return sat
}
