package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"carrental/mdp"
	"carrental/meta"
	"carrental/solver"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "CARRENTAL"

type Config struct {
	MaxCars          int     `mapstructure:"max_cars" yaml:"max_cars"`
	MaxMove          int     `mapstructure:"max_move" yaml:"max_move"`
	RentalRateFirst  float64 `mapstructure:"rental_rate_first" yaml:"rental_rate_first"`
	RentalRateSecond float64 `mapstructure:"rental_rate_second" yaml:"rental_rate_second"`
	ReturnRateFirst  float64 `mapstructure:"return_rate_first" yaml:"return_rate_first"`
	ReturnRateSecond float64 `mapstructure:"return_rate_second" yaml:"return_rate_second"`
	Truncation       int     `mapstructure:"truncation" yaml:"truncation"`
	RentalCredit     float64 `mapstructure:"rental_credit" yaml:"rental_credit"`
	MoveCost         float64 `mapstructure:"move_cost" yaml:"move_cost"`
	Discount         float64 `mapstructure:"discount" yaml:"discount"`

	SimplifyReturns bool    `mapstructure:"simplify_returns" yaml:"simplify_returns"`
	Tolerance       float64 `mapstructure:"tolerance" yaml:"tolerance"`
	MaxSweeps       int     `mapstructure:"max_sweeps" yaml:"max_sweeps"`
	MaxIterations   int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	Synchronous     bool    `mapstructure:"synchronous" yaml:"synchronous"`
	Workers         int     `mapstructure:"workers" yaml:"workers"`

	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Store     string `mapstructure:"store" yaml:"store"` // SQLite path, empty to skip
	Heatmap   bool   `mapstructure:"heatmap" yaml:"heatmap"`
	Terminal  bool   `mapstructure:"terminal" yaml:"terminal"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	EnvFile   string `mapstructure:"env_file" yaml:"env_file"`
}

// New returns a viper instance holding the defaults and reading CARRENTAL_*
// environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("max_cars", meta.MAX_CARS)
	v.SetDefault("max_move", meta.MAX_MOVE)
	v.SetDefault("rental_rate_first", meta.RENTAL_RATE_FIRST)
	v.SetDefault("rental_rate_second", meta.RENTAL_RATE_SECOND)
	v.SetDefault("return_rate_first", meta.RETURN_RATE_FIRST)
	v.SetDefault("return_rate_second", meta.RETURN_RATE_SECOND)
	v.SetDefault("truncation", meta.TRUNCATION)
	v.SetDefault("rental_credit", meta.RENTAL_CREDIT)
	v.SetDefault("move_cost", meta.MOVE_COST)
	v.SetDefault("discount", meta.DISCOUNT)
	v.SetDefault("simplify_returns", true)
	v.SetDefault("tolerance", meta.TOLERANCE)
	v.SetDefault("max_sweeps", meta.MAX_SWEEPS)
	v.SetDefault("max_iterations", meta.MAX_ITERATIONS)
	v.SetDefault("synchronous", false)
	v.SetDefault("workers", 1)
	v.SetDefault("output_dir", "results")
	v.SetDefault("store", "")
	v.SetDefault("heatmap", true)
	v.SetDefault("terminal", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("env_file", ".env")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional env file and config file into v and returns the
// validated configuration. An empty path skips the config file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if envFile := v.GetString("env_file"); envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance %v must be positive", mdp.ErrInvalidParams, c.Tolerance)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d must be at least 1", mdp.ErrInvalidParams, c.Workers)
	}
	return nil
}

func (c *Config) Params() mdp.Params {
	return mdp.Params{
		MaxCars:      c.MaxCars,
		MaxMove:      c.MaxMove,
		RentalRates:  [2]float64{c.RentalRateFirst, c.RentalRateSecond},
		ReturnRates:  [2]float64{c.ReturnRateFirst, c.ReturnRateSecond},
		Truncation:   c.Truncation,
		RentalCredit: c.RentalCredit,
		MoveCost:     c.MoveCost,
		Discount:     c.Discount,
	}
}

func (c *Config) SolverOptions() []solver.Option {
	options := []solver.Option{
		solver.WithSimplifiedReturns(c.SimplifyReturns),
		solver.WithTolerance(c.Tolerance),
		solver.WithMaxSweeps(c.MaxSweeps),
		solver.WithMaxIterations(c.MaxIterations),
		solver.WithWorkers(c.Workers),
	}
	if c.Synchronous {
		options = append(options, solver.WithSynchronous())
	}
	return options
}
