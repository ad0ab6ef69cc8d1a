package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "TIMETABLE"
	configName = "timetable"
)

// Keys shared by the config file, the environment (TIMETABLE_SEARCH_NODE_BUDGET, ...) and the flags
const (
	KeyStrategy         = "strategy"
	KeySolverBackend    = "solver.backend"
	KeySolverPath       = "solver.path"
	KeySolverArgs       = "solver.args"
	KeyMaxDailySessions = "search.max_daily_sessions"
	KeyNodeBudget       = "search.node_budget"
	KeyTimeBudget       = "search.time_budget"
	KeyWorkers          = "search.workers"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyOutputFormat     = "output.format"
	KeyMetricsFile      = "output.metrics_file"
)

type Config struct {
	Strategy string       `mapstructure:"strategy" validate:"oneof=backtracking iterative parallel sat"`
	Solver   SolverConfig `mapstructure:"solver"`
	Search   SearchConfig `mapstructure:"search"`
	Log      LogConfig    `mapstructure:"log"`
	Output   OutputConfig `mapstructure:"output"`
}

type SolverConfig struct {
	Backend string   `mapstructure:"backend" validate:"oneof=gini executable"`
	Path    string   `mapstructure:"path" validate:"required_if=Backend executable"`
	Args    []string `mapstructure:"args"`
}

type SearchConfig struct {
	MaxDailySessions int           `mapstructure:"max_daily_sessions" validate:"gt=0"`
	NodeBudget       uint64        `mapstructure:"node_budget"`
	TimeBudget       time.Duration `mapstructure:"time_budget"`
	Workers          int           `mapstructure:"workers" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type OutputConfig struct {
	Format      string `mapstructure:"format" validate:"oneof=text json"`
	MetricsFile string `mapstructure:"metrics_file"`
}

func SetDefaults(cfg *viper.Viper) {
	cfg.SetDefault(KeyStrategy, "backtracking")
	cfg.SetDefault(KeySolverBackend, "gini")
	cfg.SetDefault(KeySolverPath, "")
	cfg.SetDefault(KeySolverArgs, []string{})
	cfg.SetDefault(KeyMaxDailySessions, model.DefaultMaxDailySessions)
	cfg.SetDefault(KeyNodeBudget, 0)
	cfg.SetDefault(KeyTimeBudget, time.Duration(0))
	cfg.SetDefault(KeyWorkers, 0)
	cfg.SetDefault(KeyLogLevel, "warn")
	cfg.SetDefault(KeyLogFormat, "console")
	cfg.SetDefault(KeyOutputFormat, "text")
	cfg.SetDefault(KeyMetricsFile, "")
}

// Load reads configuration with flags overriding the environment, which overrides the config file,
// which overrides the defaults. Without an explicit path, ./timetable.{toml,yaml,json} is read when present.
func Load(cfg *viper.Viper, path string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	SetDefaults(cfg)
	cfg.SetEnvPrefix(EnvPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		cfg.SetConfigName(configName)
		cfg.AddConfigPath(".")
		if err := cfg.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := cfg.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SearchOptions maps the search section onto the engines' options
func (config Config) SearchOptions() model.Options {
	return model.Options{
		MaxDailySessions: config.Search.MaxDailySessions,
		NodeBudget:       config.Search.NodeBudget,
		TimeBudget:       config.Search.TimeBudget,
		Workers:          config.Search.Workers,
	}
}
