package model

import (
	"context"
	"fmt"

	"github.com/limaJavier/csptimetabling/pkg/sat"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type satTimetabler struct {
	solver  sat.SATSolver
	options Options
}

// NewSatTimetabler encodes the model as CNF and hands it to a SAT solver. Any solution it returns
// satisfies the same rules as the backtracking search, though it need not be the same timetable.
func NewSatTimetabler(solver sat.SATSolver, options Options) Timetabler {
	return &satTimetabler{
		solver:  solver,
		options: options.withDefaults(),
	}
}

func (timetabler *satTimetabler) Build(ctx context.Context, modelInput ModelInput) (Timetable, error) {
	logger, monitor := timetabler.options.Logger, timetabler.options.Monitor

	domainModel, err := prepareDomainModel(modelInput, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := timetabler.options.budgetContext(ctx)
	defer cancel()

	monitor.StartSearch(len(domainModel.Variables))
	defer monitor.FinishSearch()

	//** Build SAT instance
	state := newConstraintState(domainModel, timetabler.options.MaxDailySessions)
	satInstance := buildSat(state)
	logger.Info("sat instance built", zap.Uint64("variables", satInstance.Variables), zap.Int("clauses", len(satInstance.Clauses)))

	//** Solve SAT instance
	solution, err := timetabler.solver.Solve(ctx, satInstance)
	if err != nil {
		if ctx.Err() != nil {
			return nil, budgetError{cause: context.Cause(ctx)}
		}
		return nil, err
	} else if solution == nil { // Return nil if the SAT instance is not satisfiable
		logger.Info("no solution found")
		return nil, nil
	}

	assignment, err := decodeSolution(solution, state)
	if err != nil {
		return nil, err
	}
	monitor.RecordSolution()

	return assignment.Timetable(), nil
}

func (timetabler *satTimetabler) Verify(timetable Timetable, modelInput ModelInput) bool {
	return verify(timetable, modelInput, timetabler.options.MaxDailySessions)
}

// EncodeSat returns the CNF encoding of the model, as solved by the SAT timetabler
func EncodeSat(domainModel DomainModel, maxDailySessions int) sat.SAT {
	return buildSat(newConstraintState(domainModel, maxDailySessions))
}

func buildSat(state constraintState) sat.SAT {
	// Constraints functions
	constraints := []func(state constraintState) [][]int64{
		completenessConstraints,
		uniquenessConstraints,
		conflictConstraints,
		dailyLoadLinkConstraints,
		dailyLoadLimitConstraints,
	}

	// Execute constraints functions on different goroutines, each one writing to its own slot so that
	// the clause order does not depend on scheduling
	results := make([][][]int64, len(constraints))
	group := errgroup.Group{}
	for i, constraint := range constraints {
		group.Go(func() error {
			results[i] = constraint(state)
			return nil
		})
	}
	_ = group.Wait() // Constraint functions never fail

	satInstance := sat.SAT{
		Variables: state.variables,
		Clauses:   [][]int64{},
	}
	for _, clauses := range results {
		satInstance.Clauses = append(satInstance.Clauses, clauses...)
	}
	return satInstance
}

func decodeSolution(solution sat.SATSolution, state constraintState) (*Assignment, error) {
	chosen := make(map[int]int)
	for _, literal := range solution {
		// Acknowledge only positive candidate variables, auxiliaries carry no placement
		if literal <= 0 {
			continue
		}
		variable, candidate, ok := state.indexer.Attributes(uint64(literal))
		if !ok {
			continue
		}
		if previous, ok := chosen[variable]; ok {
			return nil, fmt.Errorf("solver assigned both candidates %d and %d to %v", previous, candidate, state.domainModel.Variables[variable])
		}
		chosen[variable] = candidate
	}

	assignment := NewAssignment(len(state.domainModel.Variables))
	for i, variable := range state.domainModel.Variables {
		candidate, ok := chosen[i]
		if !ok {
			return nil, fmt.Errorf("solver left %v unassigned", variable)
		}
		assignment.Assign(variable, state.domainModel.Domains[variable][candidate])
	}
	return assignment, nil
}
