// Package cmd provides the command-line interface of carrental.
package cmd

import (
	"fmt"
	"os"
	"time"

	"carrental/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configPath string
	settings   = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "carrental",
	Short: "Solve the two-location car rental problem with policy iteration.",
	Long: `carrental computes the optimal overnight car transfers between two rental ` +
		`locations whose requests and returns follow Poisson distributions, using ` +
		`exact policy iteration. Settings come from flags, CARRENTAL_* environment ` +
		`variables, an optional .env file and an optional YAML config file.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path of a YAML config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error, disabled)")
	flags.String("env-file", ".env", "env file holding CARRENTAL_* variables")
	bind(settings, flags.Lookup("log-level"), "log_level")
	bind(settings, flags.Lookup("env-file"), "env_file")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// load resolves the configuration and installs the console logger.
func load() (*config.Config, error) {
	cfg, err := config.Load(settings, configPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return cfg, nil
}

func bind(v *viper.Viper, flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}
