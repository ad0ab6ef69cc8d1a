package sat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type executableSolver struct {
	path string
	args []string
}

// NewExecutableSolver feeds the instance to an external DIMACS solver (kissat, cadical, minisat-style
// competition binaries) through standard input
func NewExecutableSolver(path string, args ...string) SATSolver {
	return &executableSolver{
		path: path,
		args: args,
	}
}

func (solver *executableSolver) Solve(ctx context.Context, sat SAT) (SATSolution, error) {
	dimacs := sat.ToDIMACS() // Transform SAT into DIMACS-CNF string format

	cmd := exec.CommandContext(ctx, solver.path, solver.args...)
	cmd.Stdin = strings.NewReader(dimacs) // Feed dimacs into the solver's standard input

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%v interrupted: %w", solver.path, context.Cause(ctx))
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("cannot run %v: %w", solver.path, err)
	}

	// Exit-code of 10 stands for satisfiable and exit-code 20 stands for unsatisfiable
	switch exitCode := cmd.ProcessState.ExitCode(); exitCode {
	case 10:
		return parseSolution(stdOut.String())
	case 20:
		return nil, nil
	default:
		return nil, fmt.Errorf("an error occurred during %v execution (exit code %d): %v", solver.path, exitCode, stderr.String())
	}
}
