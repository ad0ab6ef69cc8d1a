package model

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Options tunes the search engines. The zero value is usable.
type Options struct {
	MaxDailySessions int           // Distinct sessions a lecturer may teach per day (default 2)
	NodeBudget       uint64        // Tentative assignments allowed before giving up (0 = unlimited)
	TimeBudget       time.Duration // Wall-clock limit for the search (0 = unlimited)
	Workers          int           // Parallel engine workers (default runtime.NumCPU())
	Logger           *zap.Logger
	Monitor          *SearchMonitor
}

func (options Options) withDefaults() Options {
	if options.MaxDailySessions <= 0 {
		options.MaxDailySessions = DefaultMaxDailySessions
	}
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Monitor == nil {
		options.Monitor = NewSearchMonitor()
	}
	return options
}

func (options Options) budgetContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if options.TimeBudget > 0 {
		return context.WithTimeout(ctx, options.TimeBudget)
	}
	return context.WithCancel(ctx)
}

// errSearchAborted stops a parallel worker whose result can no longer be the chosen one
var errSearchAborted = errors.New("search aborted")

// search is the state of a single depth-first run over one assignment
type search struct {
	variables  []Variable
	domains    map[Variable][]Value
	checker    constraintChecker
	assignment *Assignment
	monitor    *SearchMonitor
	logger     *zap.Logger
	nodeBudget uint64
}

func newSearch(domainModel DomainModel, options Options) *search {
	return &search{
		variables:  domainModel.Variables,
		domains:    domainModel.Domains,
		checker:    newConstraintChecker(domainModel.GroupCapacities, domainModel.HallCapacities, options.MaxDailySessions),
		assignment: NewAssignment(len(domainModel.Variables)),
		monitor:    options.Monitor,
		logger:     options.Logger,
		nodeBudget: options.NodeBudget,
	}
}

func (s *search) complete() bool {
	return s.assignment.Len() == len(s.variables)
}

// selectVariable applies Minimum Remaining Values: the unassigned variable with the smallest domain,
// ties going to the first one in enumeration order
func (s *search) selectVariable() (Variable, bool) {
	var selected Variable
	found := false
	smallest := 0

	for _, variable := range s.variables {
		if s.assignment.Contains(variable) {
			continue
		}
		if size := len(s.domains[variable]); !found || size < smallest {
			selected, smallest, found = variable, size, true
		}
	}

	return selected, found
}

func (s *search) checkBudget(ctx context.Context) error {
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if errors.Is(cause, errSearchAborted) {
			return errSearchAborted
		}
		return budgetError{cause: cause}
	}
	if s.nodeBudget > 0 && s.monitor.Nodes() >= s.nodeBudget {
		return budgetError{cause: fmt.Errorf("node budget of %d exhausted", s.nodeBudget)}
	}
	return nil
}

// tryAssign tentatively assigns value to variable if it is consistent with the current assignment
func (s *search) tryAssign(ctx context.Context, variable Variable, value Value) (bool, error) {
	if err := s.checkBudget(ctx); err != nil {
		return false, err
	}

	s.monitor.RecordCheck()
	if !s.checker.IsConsistent(s.assignment, variable, value) {
		return false, nil
	}

	s.assignment.Assign(variable, value)
	s.monitor.RecordNode(s.assignment.Len())
	return true, nil
}

func (s *search) undo(variable Variable) {
	s.assignment.Unassign(variable)
	s.monitor.RecordBacktrack()
	s.logger.Debug("backtrack", zap.Stringer("variable", variable), zap.Int("depth", s.assignment.Len()))
}

// backtrack is the recursive depth-first search; depth equals the number of assigned variables
func (s *search) backtrack(ctx context.Context) (bool, error) {
	if s.complete() {
		return true, nil
	}

	variable, _ := s.selectVariable()
	for _, value := range s.domains[variable] {
		assigned, err := s.tryAssign(ctx, variable, value)
		if err != nil {
			return false, err
		} else if !assigned {
			continue
		}

		solved, err := s.backtrack(ctx)
		if err != nil || solved {
			return solved, err
		}
		s.undo(variable)
	}

	return false, nil
}

// Solve runs the recursive backtracking search with MRV ordering. It returns the total assignment, or
// nil (with a nil error) when no solution exists.
func Solve(ctx context.Context, domainModel DomainModel, options Options) (*Assignment, error) {
	options = options.withDefaults()
	ctx, cancel := options.budgetContext(ctx)
	defer cancel()

	s := newSearch(domainModel, options)
	s.monitor.StartSearch(len(s.variables))
	defer s.monitor.FinishSearch()

	solved, err := s.backtrack(ctx)
	if err != nil {
		return nil, err
	} else if !solved {
		return nil, nil
	}

	s.monitor.RecordSolution()
	return s.assignment, nil
}
