package config

import (
	"os"
	"path/filepath"
	"testing"

	"carrental/mdp"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("using the defaults without a file", func(t *testing.T) {
		v := New()
		v.Set("env_file", "")

		cfg, err := Load(v, "")

		require.NoError(t, err)
		require.Equal(t, mdp.Params{
			MaxCars:      20,
			MaxMove:      5,
			RentalRates:  [2]float64{3, 4},
			ReturnRates:  [2]float64{3, 2},
			Truncation:   11,
			RentalCredit: 10,
			MoveCost:     2,
			Discount:     0.9,
		}, cfg.Params())
		require.True(t, cfg.SimplifyReturns)
		require.Equal(t, 1, cfg.Workers)
	})

	t.Run("overriding from a YAML file", func(t *testing.T) {
		path := writeFile(t, "carrental.yaml", "max_cars: 10\ndiscount: 0.5\nsynchronous: true\nworkers: 4\n")
		v := New()
		v.Set("env_file", "")

		cfg, err := Load(v, path)

		require.NoError(t, err)
		require.Equal(t, 10, cfg.MaxCars)
		require.Equal(t, 0.5, cfg.Discount)
		require.True(t, cfg.Synchronous)
		require.Len(t, cfg.SolverOptions(), 6, "Synchronous mode should add an option")
		require.Equal(t, 5, cfg.MaxMove, "Unset keys should keep their defaults")
	})

	t.Run("overriding from the environment", func(t *testing.T) {
		t.Setenv("CARRENTAL_MOVE_COST", "3.5")
		v := New()
		v.Set("env_file", "")

		cfg, err := Load(v, "")

		require.NoError(t, err)
		require.Equal(t, 3.5, cfg.MoveCost)
	})

	t.Run("reading an env file", func(t *testing.T) {
		path := writeFile(t, ".env", "CARRENTAL_TRUNCATION=15\n")
		t.Cleanup(func() { os.Unsetenv("CARRENTAL_TRUNCATION") })
		v := New()
		v.Set("env_file", path)

		cfg, err := Load(v, "")

		require.NoError(t, err)
		require.Equal(t, 15, cfg.Truncation)
	})

	t.Run("ignoring a missing env file", func(t *testing.T) {
		v := New()
		v.Set("env_file", filepath.Join(t.TempDir(), "missing.env"))

		_, err := Load(v, "")

		require.NoError(t, err)
	})

	t.Run("failing on a missing config file", func(t *testing.T) {
		v := New()
		v.Set("env_file", "")

		_, err := Load(v, filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
	})

	t.Run("rejecting invalid values", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "discount: 1.2\n")
		v := New()
		v.Set("env_file", "")

		_, err := Load(v, path)

		require.ErrorIs(t, err, mdp.ErrInvalidParams)
	})

	t.Run("rejecting zero workers", func(t *testing.T) {
		v := New()
		v.Set("env_file", "")
		v.Set("workers", 0)

		_, err := Load(v, "")

		require.ErrorIs(t, err, mdp.ErrInvalidParams)
	})
}
