package model

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type parallelTimetabler struct {
	options Options
}

// NewParallelTimetabler splits the search on the candidates of the first selected variable. Each worker
// owns its assignment, and the lowest candidate that leads to a solution wins, so the result matches
// the backtracking timetabler's. A node budget is shared by all workers and counts the nodes they visit
// concurrently, so under a budget the run may give up where the backtracking timetabler would not, or
// the other way around.
func NewParallelTimetabler(options Options) Timetabler {
	return &parallelTimetabler{
		options: options.withDefaults(),
	}
}

func (timetabler *parallelTimetabler) Build(ctx context.Context, modelInput ModelInput) (Timetable, error) {
	domainModel, err := prepareDomainModel(modelInput, timetabler.options.Logger)
	if err != nil {
		return nil, err
	}

	assignment, err := SolveParallel(ctx, domainModel, timetabler.options)
	if err != nil {
		return nil, err
	} else if assignment == nil {
		timetabler.options.Logger.Info("no solution found", zap.Uint64("nodes", timetabler.options.Monitor.Nodes()))
		return nil, nil
	}

	return assignment.Timetable(), nil
}

func (timetabler *parallelTimetabler) Verify(timetable Timetable, modelInput ModelInput) bool {
	return verify(timetable, modelInput, timetabler.options.MaxDailySessions)
}

func SolveParallel(ctx context.Context, domainModel DomainModel, options Options) (*Assignment, error) {
	options = options.withDefaults()
	ctx, cancel := options.budgetContext(ctx)
	defer cancel()

	root := newSearch(domainModel, options)
	root.monitor.StartSearch(len(root.variables))
	defer root.monitor.FinishSearch()

	if root.complete() {
		root.monitor.RecordSolution()
		return root.assignment, nil
	}

	first, _ := root.selectVariable()
	candidates := root.domains[first]

	type outcome struct {
		assignment *Assignment
		err        error
	}
	outcomes := make([]outcome, len(candidates))

	// Contexts are created upfront so that any worker can abort the ones behind it
	contexts := make([]context.Context, len(candidates))
	cancels := make([]context.CancelCauseFunc, len(candidates))
	for index := range candidates {
		contexts[index], cancels[index] = context.WithCancelCause(ctx)
	}
	defer func() {
		for _, cancelWorker := range cancels {
			cancelWorker(nil)
		}
	}()

	var best atomic.Int64 // Lowest candidate index known to lead to a solution
	best.Store(int64(len(candidates)))

	group := errgroup.Group{}
	group.SetLimit(options.Workers)
	for index, value := range candidates {
		group.Go(func() error {
			if int64(index) > best.Load() {
				outcomes[index] = outcome{err: errSearchAborted}
				return nil
			}

			worker := newSearch(domainModel, options)
			assigned, err := worker.tryAssign(contexts[index], first, value)
			if err != nil || !assigned {
				outcomes[index] = outcome{err: err}
				return nil
			}

			solved, err := worker.backtrack(contexts[index])
			if err != nil || !solved {
				outcomes[index] = outcome{err: err}
				return nil
			}

			outcomes[index] = outcome{assignment: worker.assignment}
			for current := best.Load(); int64(index) < current; current = best.Load() {
				if best.CompareAndSwap(current, int64(index)) {
					break
				}
			}
			for behind := index + 1; behind < len(candidates); behind++ {
				cancels[behind](errSearchAborted)
			}
			options.Logger.Debug("worker found a solution", zap.Int("candidate", index))
			return nil
		})
	}
	_ = group.Wait() // Workers report through outcomes

	// The first decisive outcome in candidate order is the sequential search's outcome
	for _, outcome := range outcomes {
		if outcome.assignment != nil {
			root.monitor.RecordSolution()
			return outcome.assignment, nil
		} else if outcome.err != nil && !errors.Is(outcome.err, errSearchAborted) {
			return nil, outcome.err
		}
	}

	return nil, nil
}
