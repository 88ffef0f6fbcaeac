package experiments

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"carrental/config"
	"carrental/engine"

	"github.com/rs/zerolog/log"
)

type Variant struct {
	ID    int
	Name  string
	Apply func(cfg *config.Config)
}

// UpdateVariants compare the in-place and double-buffered evaluation schemes.
var UpdateVariants = []Variant{
	{ID: 1, Name: "in-place", Apply: func(cfg *config.Config) { cfg.Synchronous = false; cfg.Workers = 1 }},
	{ID: 2, Name: "synchronous", Apply: func(cfg *config.Config) { cfg.Synchronous = true; cfg.Workers = 1 }},
	{ID: 3, Name: "synchronous-parallel", Apply: func(cfg *config.Config) { cfg.Synchronous = true; cfg.Workers = runtime.NumCPU() }},
}

// ReturnVariants compare constant returns with summing over Poisson returns.
var ReturnVariants = []Variant{
	{ID: 1, Name: "constant-returns", Apply: func(cfg *config.Config) { cfg.SimplifyReturns = true }},
	{ID: 2, Name: "poisson-returns", Apply: func(cfg *config.Config) { cfg.SimplifyReturns = false }},
}

type Record struct {
	Variant      Variant
	RunID        string
	Iterations   int
	Sweeps       int64
	Evaluations  int64
	Duration     time.Duration
	PolicyDiff   int     // States whose action differs from the first variant
	MaxValueDiff float64 // Largest value difference to the first variant
}

// Run solves the base configuration once per variant and stores a summary
// under <output_dir>/<name>.
func Run(ctx context.Context, name string, base config.Config, variants []Variant) ([]Record, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("experiment %s has no variants", name)
	}
	baseDir := filepath.Join(base.OutputDir, name)

	log.Info().Msgf("starting %s experiment...", name)

	records := []Record{}
	var first *engine.Report
	for i, variant := range variants {
		cfg := base
		variant.Apply(&cfg)
		cfg.OutputDir = baseDir
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("variant %s is invalid: %w", variant.Name, err)
		}

		log.Info().Msgf("starting variant %d of %d: %s...", i+1, len(variants), variant.Name)
		report, err := engine.Run(ctx, &cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("variant %s failed: %w", variant.Name, err)
		}
		if first == nil {
			first = report
		}

		metrics := report.Result.Metrics
		records = append(records, Record{
			Variant:      variant,
			RunID:        report.RunID,
			Iterations:   report.Result.Iterations,
			Sweeps:       metrics.Sweeps,
			Evaluations:  metrics.Evaluations,
			Duration:     metrics.Duration,
			PolicyDiff:   report.Result.Policy.Diff(first.Result.Policy),
			MaxValueDiff: report.Result.Values.MaxChange(first.Result.Values),
		})
		log.Info().Msgf("completed variant %s in %v", variant.Name, metrics.Duration)
	}

	log.Info().Msgf("completed %s experiment", name)

	if err := writeSummary(filepath.Join(baseDir, "summary.csv"), records); err != nil {
		return nil, err
	}
	log.Info().Msg("stored experiment summary")
	return records, nil
}

func writeSummary(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "variant", "run", "iterations", "sweeps", "evaluations", "duration", "policy_diff", "max_value_diff"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Variant.ID),
			record.Variant.Name,
			record.RunID,
			strconv.Itoa(record.Iterations),
			strconv.FormatInt(record.Sweeps, 10),
			strconv.FormatInt(record.Evaluations, 10),
			record.Duration.String(),
			strconv.Itoa(record.PolicyDiff),
			strconv.FormatFloat(record.MaxValueDiff, 'g', 6, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}
