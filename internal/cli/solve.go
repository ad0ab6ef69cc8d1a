package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/limaJavier/csptimetabling/internal/config"
	"github.com/limaJavier/csptimetabling/internal/metrics"
	"github.com/limaJavier/csptimetabling/internal/render"
	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/limaJavier/csptimetabling/pkg/sat"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type solveOptions struct {
	file string
	out  string
}

func newSolveCmd(app *app) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build a timetable",
		Long:  "Build a timetable and verify it. Exit codes: 10 solved, 20 no solution, 15 verification failed, 30 search budget exceeded, 1 any other error.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := app.setup(cmd, map[string]string{
				config.KeyStrategy:         "strategy",
				config.KeySolverBackend:    "solver",
				config.KeySolverPath:       "solver-path",
				config.KeyOutputFormat:     "format",
				config.KeyMaxDailySessions: "max-daily",
				config.KeyNodeBudget:       "node-budget",
				config.KeyTimeBudget:       "time-budget",
				config.KeyWorkers:          "workers",
				config.KeyMetricsFile:      "metrics-file",
			})
			if err != nil {
				return err
			}
			return runSolve(cmd, app, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "schedule description (.yaml, .yml, .json or .toml)")
	flags.StringVarP(&opts.out, "out", "o", "", "write the timetable to this file instead of stdout")
	flags.String("strategy", "backtracking", "search strategy (backtracking, iterative, parallel, sat)")
	flags.String("solver", "gini", "SAT backend for the sat strategy (gini, executable)")
	flags.String("solver-path", "", "DIMACS solver executable for the executable backend")
	flags.String("format", "text", "output format (text, json)")
	flags.Int("max-daily", model.DefaultMaxDailySessions, "sessions a lecturer may teach per day")
	flags.Uint64("node-budget", 0, "tentative assignments allowed before giving up (0 = unlimited)")
	flags.Duration("time-budget", 0, "wall-clock search limit (0 = unlimited)")
	flags.Int("workers", 0, "workers for the parallel strategy (0 = number of CPUs)")
	flags.String("metrics-file", "", "write search metrics in the Prometheus text format to this file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSolve(cmd *cobra.Command, app *app, opts *solveOptions) error {
	logger := app.logger.With(zap.String("strategy", app.config.Strategy))

	modelInput, err := model.InputFromFile(opts.file)
	if err != nil {
		return err
	}

	monitor := model.NewSearchMonitor()
	searchOptions := app.config.SearchOptions()
	searchOptions.Logger = logger
	searchOptions.Monitor = monitor

	timetabler, err := newTimetabler(app.config, searchOptions)
	if err != nil {
		return err
	}

	//** Build timetable
	outcome, code := render.OutcomeSolved, ExitSolved
	timetable, err := timetabler.Build(cmd.Context(), modelInput)
	switch {
	case errors.Is(err, model.ErrSearchBudgetExceeded):
		outcome, code = render.OutcomeBudgetExceeded, ExitBudgetExceeded
		logger.Warn("search budget exceeded", zap.Error(err))
	case err != nil:
		return err
	case timetable == nil:
		outcome, code = render.OutcomeNoSolution, ExitNoSolution
		diagnose(logger, modelInput)
	case !timetabler.Verify(timetable, modelInput):
		outcome, code = render.OutcomeVerificationFailed, ExitVerificationFailed
		logger.Error("timetable failed verification")
	}
	stats := monitor.Stats()
	logger.Info("search finished",
		zap.String("outcome", outcome),
		zap.Uint64("nodes", stats.Nodes),
		zap.Uint64("backtracks", stats.Backtracks),
		zap.Duration("searchTime", stats.SearchTime),
	)

	//** Render
	if err := writeOutput(cmd, opts.out, func(w io.Writer) error {
		if app.config.Output.Format == "json" {
			return render.JSON(w, render.NewReport(app.config.Strategy, outcome, stats, timetable, modelInput))
		}
		if code == ExitBudgetExceeded {
			_, err := fmt.Fprintln(w, "Search budget exceeded.")
			return err
		}
		return render.Text(w, timetable, modelInput)
	}); err != nil {
		return err
	}

	if path := app.config.Output.MetricsFile; path != "" {
		collector := metrics.NewCollector()
		collector.Observe(app.config.Strategy, outcome, stats)
		if err := collector.WriteTextfile(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return &ExitError{Code: code}
}

func newTimetabler(cfg config.Config, options model.Options) (model.Timetabler, error) {
	switch cfg.Strategy {
	case "backtracking":
		return model.NewBacktrackingTimetabler(options), nil
	case "iterative":
		return model.NewIterativeTimetabler(options), nil
	case "parallel":
		return model.NewParallelTimetabler(options), nil
	case "sat":
		solver, err := newSolver(cfg.Solver)
		if err != nil {
			return nil, err
		}
		return model.NewSatTimetabler(solver, options), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

func newSolver(cfg config.SolverConfig) (sat.SATSolver, error) {
	switch cfg.Backend {
	case "gini":
		return sat.NewGiniSolver(), nil
	case "executable":
		return sat.NewExecutableSolver(cfg.Path, cfg.Args...), nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q", cfg.Backend)
	}
}

// diagnose logs the sessions that cannot get a lecturer slot of their own when that explains the failure
func diagnose(logger *zap.Logger, modelInput model.ModelInput) {
	diagnosis, err := model.Diagnose(model.BuildDomainModel(modelInput))
	if err != nil {
		logger.Warn("cannot diagnose", zap.Error(err))
		return
	}
	for _, variable := range diagnosis.Unmatched {
		logger.Warn("session cannot get a lecturer slot of its own", zap.Stringer("session", variable))
	}
}

func writeOutput(cmd *cobra.Command, path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
