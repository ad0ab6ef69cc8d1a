package model

import (
	"context"

	"go.uber.org/zap"
)

type backtrackingTimetabler struct {
	options Options
}

// NewBacktrackingTimetabler searches recursively, one stack frame per assigned variable
func NewBacktrackingTimetabler(options Options) Timetabler {
	return &backtrackingTimetabler{
		options: options.withDefaults(),
	}
}

func (timetabler *backtrackingTimetabler) Build(ctx context.Context, modelInput ModelInput) (Timetable, error) {
	//** Build variables and domains
	domainModel, err := prepareDomainModel(modelInput, timetabler.options.Logger)
	if err != nil {
		return nil, err
	}

	//** Search
	assignment, err := Solve(ctx, domainModel, timetabler.options)
	if err != nil {
		return nil, err
	} else if assignment == nil { // Return nil if there is no solution
		timetabler.options.Logger.Info("no solution found", zap.Uint64("nodes", timetabler.options.Monitor.Nodes()))
		return nil, nil
	}

	return assignment.Timetable(), nil
}

func (timetabler *backtrackingTimetabler) Verify(timetable Timetable, modelInput ModelInput) bool {
	return verify(timetable, modelInput, timetabler.options.MaxDailySessions)
}
