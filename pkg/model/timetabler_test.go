package model

import (
	"context"
	"os"
	"testing"

	"github.com/limaJavier/csptimetabling/pkg/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	satisfiableTestDirectory   = "../../test/satisfiable/"
	unsatisfiableTestDirectory = "../../test/unsatisfiable/"
	invalidTestDirectory       = "../../test/invalid/"
)

type engine struct {
	name string
	new  func(options Options) Timetabler
	// Whether the engine explores the same search tree as the recursive search
	sequential bool
}

var engines = []engine{
	{name: "backtracking", new: NewBacktrackingTimetabler, sequential: true},
	{name: "iterative", new: NewIterativeTimetabler, sequential: true},
	{name: "parallel", new: func(options Options) Timetabler {
		options.Workers = 4
		return NewParallelTimetabler(options)
	}, sequential: true},
	{name: "sat", new: func(options Options) Timetabler {
		return NewSatTimetabler(sat.NewGiniSolver(), options)
	}},
}

func TestTimetablers(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			timetabler := engine.new(Options{})

			t.Run("Satisfiable instances", func(t *testing.T) {
				satisfiableExecution(t, timetabler)
			})

			t.Run("Unsatisfiable instances", func(t *testing.T) {
				unsatisfiableExecution(t, timetabler)
			})

			t.Run("Invalid instances", func(t *testing.T) {
				invalidExecution(t, timetabler)
			})
		})
	}
}

func TestScenarios(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			t.Run("Single session", func(t *testing.T) {
				//** Arrange
				input := inputFromFile(t, satisfiableTestDirectory+"single_slot.yaml")

				//** Act
				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				//** Assert
				require.NoError(t, err)
				assert.Equal(t, Timetable{
					{Group: "G1", Subject: "Math", Lesson: 0, Day: "Monday", Time: "09:00", Hall: "H1", Lecturer: "L1"},
				}, timetable)
			})

			t.Run("No qualified lecturer", func(t *testing.T) {
				//** Arrange
				input := inputFromYaml(t, `
schedule:
  time_slots: [{day: Monday, time: "09:00"}]
  subjects: [{name: Math, hours: 1}, {name: Art, hours: 1}]
  groups: [{name: G1, capacity: 10, subject_names: [Math, Art]}]
  lecturers: [{name: L1, can_teach_subjects: [Math]}]
  halls: [{name: H1, capacity: 20}]
`)

				//** Act
				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				//** Assert
				var invalid *InvalidConfigurationError
				require.ErrorAs(t, err, &invalid)
				assert.Nil(t, timetable)
				assert.Equal(t, []EmptyDomain{
					{Variable: Variable{Group: "G1", Subject: "Art", Lesson: 0}, Reason: `no lecturer is qualified to teach "Art"`},
				}, invalid.EmptyDomains)
			})

			t.Run("Single lecturer in three places", func(t *testing.T) {
				input := inputFromFile(t, unsatisfiableTestDirectory+"lecturer_overbooked.yaml")

				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				assert.NoError(t, err)
				assert.Nil(t, timetable)
			})

			t.Run("Two groups share a hall", func(t *testing.T) {
				//** Arrange
				input := inputFromFile(t, satisfiableTestDirectory+"shared_hall.yaml")

				//** Act
				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				//** Assert
				require.NoError(t, err)
				require.Len(t, timetable, 2)
				for _, session := range timetable {
					assert.Equal(t, "H", session.Hall)
				}
			})

			t.Run("Third group overflows the hall", func(t *testing.T) {
				input := inputFromFile(t, unsatisfiableTestDirectory+"hall_overflow.yaml")

				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				assert.NoError(t, err)
				assert.Nil(t, timetable)
			})

			t.Run("Third group moves to an alternate hall", func(t *testing.T) {
				//** Arrange
				input := inputFromYaml(t, `
schedule:
  time_slots: [{day: Monday, time: "09:00"}]
  subjects: [{name: Math, hours: 1}, {name: Physics, hours: 1}, {name: Chemistry, hours: 1}]
  groups:
    - {name: G1, capacity: 10, subject_names: [Math]}
    - {name: G2, capacity: 10, subject_names: [Physics]}
    - {name: G3, capacity: 15, subject_names: [Chemistry]}
  lecturers:
    - {name: L1, can_teach_subjects: [Math]}
    - {name: L2, can_teach_subjects: [Physics]}
    - {name: L3, can_teach_subjects: [Chemistry]}
  halls: [{name: H, capacity: 20}, {name: H2, capacity: 30}]
`)
				timetabler := engine.new(Options{})

				//** Act
				timetable, err := timetabler.Build(context.Background(), input)

				//** Assert
				require.NoError(t, err)
				require.Len(t, timetable, 3)
				assert.True(t, timetabler.Verify(timetable, input))
				if engine.sequential {
					assert.Equal(t, []string{"H", "H", "H2"}, hallsOf(timetable))
				}
			})

			t.Run("Daily load pushes a session to the next day", func(t *testing.T) {
				//** Arrange
				input := inputFromFile(t, satisfiableTestDirectory+"daily_load.yaml")

				//** Act
				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				//** Assert
				require.NoError(t, err)
				require.Len(t, timetable, 3)
				days := make(map[string]int)
				for _, session := range timetable {
					days[session.Day]++
				}
				assert.Equal(t, map[string]int{"Monday": 2, "Tuesday": 1}, days)
				if engine.sequential {
					assert.Equal(t, Session{Group: "G", Subject: "C", Lesson: 0, Day: "Tuesday", Time: "09:00", Hall: "H", Lecturer: "L"}, timetable[2])
				}
			})

			t.Run("Daily load limit is configurable", func(t *testing.T) {
				input := inputFromFile(t, unsatisfiableTestDirectory+"daily_load_exceeded.yaml")
				timetabler := engine.new(Options{MaxDailySessions: 3})

				timetable, err := timetabler.Build(context.Background(), input)

				require.NoError(t, err)
				assert.Len(t, timetable, 3)
				assert.True(t, timetabler.Verify(timetable, input))
			})
		})
	}
}

func TestSequentialEnginesAgree(t *testing.T) {
	testFiles, err := os.ReadDir(satisfiableTestDirectory)
	require.NoError(t, err)

	for _, file := range testFiles {
		t.Run(file.Name(), func(t *testing.T) {
			//** Arrange
			input := inputFromFile(t, satisfiableTestDirectory+file.Name())
			expected, err := NewBacktrackingTimetabler(Options{}).Build(context.Background(), input)
			require.NoError(t, err)

			for _, engine := range engines {
				if !engine.sequential {
					continue
				}

				//** Act
				timetable, err := engine.new(Options{}).Build(context.Background(), input)

				//** Assert
				require.NoError(t, err)
				assert.Equal(t, expected, timetable, engine.name)
			}
		})
	}
}

func TestSearchBudget(t *testing.T) {
	for _, engine := range engines {
		if !engine.sequential {
			continue
		}

		t.Run(engine.name, func(t *testing.T) {
			input := inputFromFile(t, satisfiableTestDirectory+"department.toml")

			t.Run("Node budget", func(t *testing.T) {
				//** Act
				timetable, err := engine.new(Options{NodeBudget: 1}).Build(context.Background(), input)

				//** Assert
				assert.ErrorIs(t, err, ErrSearchBudgetExceeded)
				assert.Nil(t, timetable)
			})

			t.Run("Cancelled context", func(t *testing.T) {
				//** Arrange
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				//** Act
				timetable, err := engine.new(Options{}).Build(ctx, input)

				//** Assert
				assert.ErrorIs(t, err, ErrSearchBudgetExceeded)
				assert.ErrorIs(t, err, context.Canceled)
				assert.Nil(t, timetable)
			})

			t.Run("Enough budget", func(t *testing.T) {
				timetable, err := engine.new(Options{NodeBudget: 100}).Build(context.Background(), input)

				assert.NoError(t, err)
				assert.Len(t, timetable, 2)
			})
		})
	}
}

// Parallel workers draw on one node budget. With a single worker they visit the nodes the backtracking
// search visits, in the same order, so both give up at the same budget.
func TestParallelNodeBudget(t *testing.T) {
	//** Arrange
	input := inputFromFile(t, satisfiableTestDirectory+"department.yaml")
	monitor := NewSearchMonitor()
	expected, err := NewBacktrackingTimetabler(Options{Monitor: monitor}).Build(context.Background(), input)
	require.NoError(t, err)
	nodes := monitor.Stats().Nodes

	t.Run("Exact budget", func(t *testing.T) {
		//** Act
		timetable, err := NewParallelTimetabler(Options{Workers: 1, NodeBudget: nodes}).Build(context.Background(), input)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, expected, timetable)
	})

	t.Run("One node short", func(t *testing.T) {
		_, sequentialErr := NewBacktrackingTimetabler(Options{NodeBudget: nodes - 1}).Build(context.Background(), input)
		_, parallelErr := NewParallelTimetabler(Options{Workers: 1, NodeBudget: nodes - 1}).Build(context.Background(), input)

		assert.ErrorIs(t, sequentialErr, ErrSearchBudgetExceeded)
		assert.ErrorIs(t, parallelErr, ErrSearchBudgetExceeded)
	})
}

func TestReusedTimetabler(t *testing.T) {
	input := inputFromFile(t, satisfiableTestDirectory+"single_slot.yaml")

	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			//** Arrange
			monitor := NewSearchMonitor()
			timetabler := engine.new(Options{NodeBudget: 2, Monitor: monitor})

			for run := range 3 {
				//** Act
				timetable, err := timetabler.Build(context.Background(), input)

				//** Assert
				require.NoError(t, err, "run %d", run)
				assert.Len(t, timetable, 1)

				// Statistics describe the latest run only
				stats := monitor.Stats()
				assert.Equal(t, 1, stats.Variables)
				assert.Equal(t, 1, stats.SolutionsFound)
				if engine.sequential {
					assert.Equal(t, uint64(1), stats.Nodes)
					assert.Equal(t, uint64(1), stats.Checks)
				}
			}
		})
	}
}

func TestMinimumRemainingValues(t *testing.T) {
	t.Run("Smallest domain first", func(t *testing.T) {
		//** Arrange
		input := inputFromYaml(t, `
schedule:
  time_slots: [{day: Monday, time: "09:00"}, {day: Monday, time: "10:00"}]
  subjects: [{name: Math, hours: 1}, {name: Physics, hours: 1}]
  groups: [{name: G1, capacity: 10, subject_names: [Math, Physics]}]
  lecturers:
    - {name: L1, can_teach_subjects: [Math, Physics]}
    - {name: L2, can_teach_subjects: [Math]}
  halls: [{name: H1, capacity: 20}]
`)

		//** Act
		assignment, err := Solve(context.Background(), BuildDomainModel(input), Options{})

		//** Assert
		require.NoError(t, err)
		require.NotNil(t, assignment)
		assert.Equal(t, []Variable{
			{Group: "G1", Subject: "Physics", Lesson: 0},
			{Group: "G1", Subject: "Math", Lesson: 0},
		}, assignment.Variables())
		// L1 already teaches Physics at 09:00
		value, _ := assignment.Value(Variable{Group: "G1", Subject: "Math", Lesson: 0})
		assert.Equal(t, Value{Day: "Monday", Time: "09:00", Hall: "H1", Lecturer: "L2"}, value)
	})

	t.Run("Ties go to the first variable", func(t *testing.T) {
		input := inputFromFile(t, satisfiableTestDirectory+"shared_hall.yaml")

		assignment, err := Solve(context.Background(), BuildDomainModel(input), Options{})

		require.NoError(t, err)
		assert.Equal(t, []Variable{
			{Group: "G1", Subject: "Math", Lesson: 0},
			{Group: "G2", Subject: "Physics", Lesson: 0},
		}, assignment.Variables())
	})
}

func TestSearchMonitor(t *testing.T) {
	//** Arrange
	monitor := NewSearchMonitor()
	input := inputFromFile(t, satisfiableTestDirectory+"daily_load.yaml")

	//** Act
	_, err := NewBacktrackingTimetabler(Options{Monitor: monitor}).Build(context.Background(), input)

	//** Assert
	require.NoError(t, err)
	stats := monitor.Stats()
	assert.Equal(t, 3, stats.Variables)
	assert.Equal(t, 3, stats.MaxDepth)
	assert.Equal(t, uint64(3), stats.Nodes)
	assert.Equal(t, uint64(0), stats.Backtracks)
	assert.Equal(t, 1, stats.SolutionsFound)
	// A takes Monday 09:00, B is rejected once and C three times before Tuesday
	assert.Equal(t, uint64(7), stats.Checks)
}

func TestVerify(t *testing.T) {
	input := inputFromFile(t, satisfiableTestDirectory+"shared_hall.yaml")
	valid := Timetable{
		{Group: "G1", Subject: "Math", Lesson: 0, Day: "Monday", Time: "09:00", Hall: "H", Lecturer: "L1"},
		{Group: "G2", Subject: "Physics", Lesson: 0, Day: "Monday", Time: "09:00", Hall: "H", Lecturer: "L2"},
	}

	t.Run("Valid timetable", func(t *testing.T) {
		assert.True(t, verify(valid, input, 2))
	})

	t.Run("Missing session", func(t *testing.T) {
		assert.False(t, verify(valid[:1], input, 2))
	})

	t.Run("Duplicated session", func(t *testing.T) {
		assert.False(t, verify(append(Timetable{valid[0]}, valid...), input, 2))
	})

	t.Run("Unqualified lecturer", func(t *testing.T) {
		invalid := Timetable{valid[0], valid[1]}
		invalid[1].Lecturer = "L1"
		assert.False(t, verify(invalid, input, 2))
	})

	t.Run("Unknown time slot", func(t *testing.T) {
		invalid := Timetable{valid[0], valid[1]}
		invalid[1].Day = "Sunday"
		assert.False(t, verify(invalid, input, 2))
	})
}

func satisfiableExecution(t *testing.T, timetabler Timetabler) {
	testFiles, err := os.ReadDir(satisfiableTestDirectory)
	require.NoError(t, err)

	for _, file := range testFiles {
		t.Run(file.Name(), func(t *testing.T) {
			//** Arrange
			input := inputFromFile(t, satisfiableTestDirectory+file.Name())

			//** Act
			timetable, err := timetabler.Build(context.Background(), input)

			//** Assert
			assert.Nil(t, err)
			assert.NotNil(t, timetable)
			assert.True(t, timetabler.Verify(timetable, input))
		})
	}
}

func unsatisfiableExecution(t *testing.T, timetabler Timetabler) {
	testFiles, err := os.ReadDir(unsatisfiableTestDirectory)
	require.NoError(t, err)

	for _, file := range testFiles {
		t.Run(file.Name(), func(t *testing.T) {
			input := inputFromFile(t, unsatisfiableTestDirectory+file.Name())

			timetable, err := timetabler.Build(context.Background(), input)

			assert.Nil(t, err)
			assert.Nil(t, timetable)
		})
	}
}

func invalidExecution(t *testing.T, timetabler Timetabler) {
	testFiles, err := os.ReadDir(invalidTestDirectory)
	require.NoError(t, err)

	for _, file := range testFiles {
		t.Run(file.Name(), func(t *testing.T) {
			input := inputFromFile(t, invalidTestDirectory+file.Name())

			timetable, err := timetabler.Build(context.Background(), input)

			var invalid *InvalidConfigurationError
			assert.ErrorAs(t, err, &invalid)
			assert.Nil(t, timetable)
		})
	}
}

func inputFromFile(t *testing.T, filename string) ModelInput {
	t.Helper()
	input, err := InputFromFile(filename)
	require.NoError(t, err)
	return input
}

func inputFromYaml(t *testing.T, content string) ModelInput {
	t.Helper()
	input, err := InputFromYaml([]byte(content))
	require.NoError(t, err)
	return input
}

func hallsOf(timetable Timetable) []string {
	halls := make([]string, 0, len(timetable))
	for _, session := range timetable {
		halls = append(halls, session.Hall)
	}
	return halls
}
