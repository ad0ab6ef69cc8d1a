package sat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

const giniPollInterval = 10 * time.Millisecond

type giniSolver struct{}

// NewGiniSolver solves in-process, so no solver executable needs to be installed
func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Solve(ctx context.Context, sat SAT) (SATSolution, error) {
	g := gini.New()
	known := int64(0) // Largest variable gini has seen
	for _, clause := range sat.Clauses {
		for _, literal := range clause {
			g.Add(giniLiteral(literal))
			known = max(known, literal, -literal)
		}
		g.Add(0)
	}

	result, err := solveWithContext(ctx, g)
	if err != nil {
		return nil, err
	}

	// Result of 1 stands for satisfiable and -1 stands for unsatisfiable
	switch result {
	case 1:
	case -1:
		return nil, nil
	default:
		return nil, fmt.Errorf("gini returned an unknown result: %d", result)
	}

	solution := make(SATSolution, 0, sat.Variables)
	for variable := int64(1); variable <= int64(sat.Variables); variable++ {
		if variable <= known && g.Value(z.Var(variable).Pos()) {
			solution = append(solution, variable)
		} else {
			solution = append(solution, -variable)
		}
	}
	return solution, nil
}

func solveWithContext(ctx context.Context, g *gini.Gini) (int, error) {
	solve := g.GoSolve()
	ticker := time.NewTicker(giniPollInterval)
	defer ticker.Stop()

	for {
		if result, done := solve.Test(); done {
			return result, nil
		}

		select {
		case <-ctx.Done():
			solve.Stop()
			return 0, fmt.Errorf("gini solve interrupted: %w", context.Cause(ctx))
		case <-ticker.C:
		}
	}
}

func giniLiteral(literal int64) z.Lit {
	if literal < 0 {
		return z.Var(-literal).Neg()
	}
	return z.Var(literal).Pos()
}
