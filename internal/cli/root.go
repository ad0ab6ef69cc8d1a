package cli

import (
	"fmt"

	"github.com/limaJavier/csptimetabling/internal/config"
	"github.com/limaJavier/csptimetabling/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X github.com/limaJavier/csptimetabling/internal/cli.Version=..."
var Version = "dev"

func Execute() error {
	return newRootCmd().Execute()
}

type app struct {
	cfg        *viper.Viper
	configPath string
	config     config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	app := &app{cfg: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "timetable",
		Short:         "Schedule course sessions into halls, time slots and lecturers",
		Long:          "timetable assigns every lesson of every group to a time slot, a lecture hall and a qualified lecturer, so that no lecturer is double-booked, no hall is overfilled and no lecturer exceeds the daily session limit.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default ./timetable.{toml,yaml,json} when present)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSolveCmd(app),
		newCheckCmd(app),
		newDimacsCmd(app),
	)

	return rootCmd
}

// setup binds the running command's flags to their config keys, loads the configuration and builds the
// logger. Binding happens here because several commands share config keys and viper keeps one flag per key.
func (app *app) setup(cmd *cobra.Command, bindings map[string]string) error {
	bindings[config.KeyLogLevel] = "log-level"
	bindings[config.KeyLogFormat] = "log-format"

	for key, name := range bindings {
		if err := app.cfg.BindPFlag(key, lookupFlag(cmd, name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	loaded, err := config.Load(app.cfg, app.configPath)
	if err != nil {
		return err
	}
	app.config = loaded

	logger, err := logging.New(cmd.ErrOrStderr(), loaded.Log.Level, loaded.Log.Format)
	if err != nil {
		return err
	}
	app.logger = logger

	return nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}
