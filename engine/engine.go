package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"carrental/config"
	"carrental/record"
	"carrental/render"
	"carrental/solver"

	"github.com/rs/zerolog/log"
)

const HistogramBins = 12

type Report struct {
	RunID    string
	Dir      string
	Result   *solver.Result
	Recorder *solver.Recorder
}

// Run solves the configured problem and writes its results. Terminal output
// goes to out when the configuration asks for it.
func Run(ctx context.Context, cfg *config.Config, out io.Writer) (*Report, error) {
	params := cfg.Params()
	recorder := solver.NewRecorder()
	options := append(cfg.SolverOptions(), solver.WithObserver(recorder), solver.WithMetrics())

	pi, err := solver.NewPolicyIteration(params, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create solver: %w", err)
	}

	writer, err := record.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create result writer: %w", err)
	}

	log.Info().Msgf("starting run %s with %+v...", writer.RunID(), params)
	start := time.Now()
	result, err := pi.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run %s failed: %w", writer.RunID(), err)
	}
	end := time.Now()
	log.Info().Msgf("completed run %s after %d iterations in %v", writer.RunID(), result.Iterations, end.Sub(start))

	err = writer.WriteSetup(record.Setup{
		Params:          params,
		SimplifyReturns: cfg.SimplifyReturns,
		Synchronous:     cfg.Synchronous,
		Workers:         cfg.Workers,
		StartTime:       start,
		EndTime:         end,
		Duration:        end.Sub(start),
		Iterations:      result.Iterations,
		Sweeps:          result.Metrics.Sweeps,
		Evaluations:     result.Metrics.Evaluations,
	})
	if err != nil {
		return nil, err
	}
	if err := writer.WritePolicies(recorder.Policies); err != nil {
		return nil, err
	}
	if err := writer.WriteValues(result.Values); err != nil {
		return nil, err
	}
	if err := writer.WriteSweeps(recorder.Sweeps); err != nil {
		return nil, err
	}
	log.Info().Msgf("stored results in %s", writer.Dir())

	if cfg.Heatmap {
		if err := writeHeatmaps(writer.Path("heatmaps.html"), recorder, result); err != nil {
			return nil, err
		}
		log.Info().Msg("stored heatmaps")
	}

	if cfg.Store != "" {
		if err := save(cfg.Store, writer.RunID(), recorder, cfg); err != nil {
			return nil, err
		}
		log.Info().Msgf("stored run %s in %s", writer.RunID(), cfg.Store)
	}

	if cfg.Terminal && out != nil {
		if err := display(out, result); err != nil {
			return nil, fmt.Errorf("failed to display results: %w", err)
		}
	}

	return &Report{
		RunID:    writer.RunID(),
		Dir:      writer.Dir(),
		Result:   result,
		Recorder: recorder,
	}, nil
}

func writeHeatmaps(path string, recorder *solver.Recorder, result *solver.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heatmap file: %w", err)
	}
	defer f.Close()

	// Include the converged policy next to the snapshots evaluated before it
	snapshots := append([]solver.PolicySnapshot{}, recorder.Policies...)
	snapshots = append(snapshots, solver.PolicySnapshot{
		Iteration: result.Iterations + 1,
		Policy:    result.Policy,
	})
	return render.WritePage(f, snapshots, result.Values)
}

func save(path, runID string, recorder *solver.Recorder, cfg *config.Config) error {
	store, err := record.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(runID, cfg.Params(), recorder)
}

func display(out io.Writer, result *solver.Result) error {
	fmt.Fprintln(out, "policy:")
	if err := render.TerminalPolicy(out, result.Policy); err != nil {
		return err
	}
	fmt.Fprintln(out, "values:")
	if err := render.TerminalValues(out, result.Values); err != nil {
		return err
	}
	fmt.Fprintln(out, "value distribution:")
	return render.Histogram(out, result.Values, HistogramBins)
}
