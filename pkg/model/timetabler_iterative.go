package model

import (
	"context"

	"go.uber.org/zap"
)

type iterativeTimetabler struct {
	options Options
}

// NewIterativeTimetabler explores the same search tree as the backtracking timetabler, in the same
// order, with an explicit stack instead of recursion
func NewIterativeTimetabler(options Options) Timetabler {
	return &iterativeTimetabler{
		options: options.withDefaults(),
	}
}

func (timetabler *iterativeTimetabler) Build(ctx context.Context, modelInput ModelInput) (Timetable, error) {
	domainModel, err := prepareDomainModel(modelInput, timetabler.options.Logger)
	if err != nil {
		return nil, err
	}

	assignment, err := SolveIterative(ctx, domainModel, timetabler.options)
	if err != nil {
		return nil, err
	} else if assignment == nil {
		timetabler.options.Logger.Info("no solution found", zap.Uint64("nodes", timetabler.options.Monitor.Nodes()))
		return nil, nil
	}

	return assignment.Timetable(), nil
}

func (timetabler *iterativeTimetabler) Verify(timetable Timetable, modelInput ModelInput) bool {
	return verify(timetable, modelInput, timetabler.options.MaxDailySessions)
}

// SolveIterative is Solve without recursion, for timetables whose variable count would make the
// call stack deep
func SolveIterative(ctx context.Context, domainModel DomainModel, options Options) (*Assignment, error) {
	options = options.withDefaults()
	ctx, cancel := options.budgetContext(ctx)
	defer cancel()

	s := newSearch(domainModel, options)
	s.monitor.StartSearch(len(s.variables))
	defer s.monitor.FinishSearch()

	solved, err := s.iterate(ctx)
	if err != nil {
		return nil, err
	} else if !solved {
		return nil, nil
	}

	s.monitor.RecordSolution()
	return s.assignment, nil
}

func (s *search) iterate(ctx context.Context) (bool, error) {
	type searchFrame struct {
		variable   Variable
		valueIndex int  // Next candidate to try
		assigned   bool // Whether the frame's variable currently holds a value
	}

	if s.complete() {
		return true, nil
	}

	variable, _ := s.selectVariable()
	stack := make([]*searchFrame, 0, len(s.variables))
	stack = append(stack, &searchFrame{variable: variable})

	for len(stack) > 0 {
		frame := stack[len(stack)-1]

		// Returning to a frame means the descent below it failed
		if frame.assigned {
			s.undo(frame.variable)
			frame.assigned = false
		}

		domain := s.domains[frame.variable]
		for !frame.assigned && frame.valueIndex < len(domain) {
			value := domain[frame.valueIndex]
			frame.valueIndex++

			assigned, err := s.tryAssign(ctx, frame.variable, value)
			if err != nil {
				return false, err
			}
			frame.assigned = assigned
		}

		// Domain exhausted: backtrack
		if !frame.assigned {
			stack = stack[:len(stack)-1]
			continue
		}

		if s.complete() {
			return true, nil
		}

		next, _ := s.selectVariable()
		stack = append(stack, &searchFrame{variable: next})
	}

	return false, nil
}
