package solver

import (
	"context"
	"testing"

	"carrental/mdp"

	"github.com/stretchr/testify/require"
)

func TestNewPolicyIteration(t *testing.T) {
	t.Run("rejecting invalid parameters", func(t *testing.T) {
		p := defaultParams()
		p.Discount = 1.5
		_, err := NewPolicyIteration(p)
		require.ErrorIs(t, err, mdp.ErrInvalidParams)
	})

	t.Run("ignoring non-positive option values", func(t *testing.T) {
		pi, err := NewPolicyIteration(defaultParams(), WithTolerance(0), WithMaxSweeps(-1), WithWorkers(0))
		require.NoError(t, err)
		require.Positive(t, pi.tolerance)
		require.Positive(t, pi.maxSweeps)
		require.Equal(t, 1, pi.workers)
	})
}

func TestPolicyIterationRun(t *testing.T) {
	recorder := NewRecorder()
	pi, err := NewPolicyIteration(defaultParams(),
		WithSimplifiedReturns(true),
		WithObserver(recorder),
		WithMetrics(),
	)
	require.NoError(t, err)

	result, err := pi.Run(context.Background())
	require.NoError(t, err)

	t.Run("terminating with a stable policy", func(t *testing.T) {
		require.LessOrEqual(t, result.Iterations, 10, "Default parameters should converge quickly")
		require.Len(t, recorder.Improvements, result.Iterations)
		last := recorder.Improvements[len(recorder.Improvements)-1]
		require.True(t, last.Stable)
		require.Zero(t, last.Changed)
		for _, improvement := range recorder.Improvements[:len(recorder.Improvements)-1] {
			require.False(t, improvement.Stable, "Only the last improvement should be stable")
		}
	})

	t.Run("starting from the zero policy", func(t *testing.T) {
		require.Len(t, recorder.Policies, result.Iterations, "One snapshot per evaluation phase")
		require.True(t, recorder.Policies[0].Policy.Equal(NewPolicyTable(20)))
	})

	t.Run("not moving cars from an empty lot", func(t *testing.T) {
		require.Equal(t, mdp.Action(0), result.Policy.At(mdp.State{}))
	})

	t.Run("moving cars towards the location that drains", func(t *testing.T) {
		// Location 2 rents more than it gets back
		require.Greater(t, result.Policy.At(mdp.State{First: 20, Second: 0}), mdp.Action(0))
	})

	t.Run("only choosing feasible actions", func(t *testing.T) {
		for _, s := range defaultParams().States() {
			a := result.Policy.At(s)
			require.True(t, s.Feasible(a), "Action %d is infeasible in %v", a, s)
			require.LessOrEqual(t, mdp.Abs(a), mdp.Action(5))
		}
	})

	t.Run("max change shrinks after the second sweep", func(t *testing.T) {
		for iteration := 1; iteration <= result.Iterations; iteration++ {
			changes := recorder.SweepsOf(iteration)
			require.NotEmpty(t, changes)
			for i := 2; i < len(changes); i++ {
				require.LessOrEqual(t, changes[i], changes[i-1]+1e-9,
					"Iteration %d sweep %d should not change more than the one before", iteration, i+1)
			}
			require.Less(t, changes[len(changes)-1], 1e-4, "Evaluation should stop below the tolerance")
		}
	})

	t.Run("exposing the converged tables", func(t *testing.T) {
		require.NotNil(t, recorder.Values)
		require.Zero(t, recorder.Values.MaxChange(result.Values))
		require.True(t, recorder.Policy.Equal(result.Policy))
	})

	t.Run("values are a fixed point of the greedy policy", func(t *testing.T) {
		for _, s := range []mdp.State{{}, {First: 10, Second: 10}, {First: 20, Second: 3}} {
			_, best := pi.Greedy(s, result.Values)
			require.InDelta(t, result.Values.At(s), best, 1e-2, "State %v", s)
		}
	})

	t.Run("collecting metrics", func(t *testing.T) {
		require.Equal(t, int64(result.Iterations), result.Metrics.Iterations)
		require.Equal(t, int64(len(recorder.Sweeps)), result.Metrics.Sweeps)
		require.Positive(t, result.Metrics.Evaluations)
	})
}

func TestPolicyIterationGreedy(t *testing.T) {
	t.Run("only the zero action is feasible in the empty state", func(t *testing.T) {
		counting := &countingObserver{}
		p := defaultParams()
		pi, err := NewPolicyIteration(p, WithMetrics(), WithObserver(counting))
		require.NoError(t, err)
		values := NewValueTable(p.MaxCars)

		a, _ := pi.Greedy(mdp.State{}, values)

		require.Equal(t, mdp.Action(0), a)
		require.Equal(t, int64(1), pi.metrics.Complete().Evaluations, "Infeasible actions should not be evaluated")
	})

	t.Run("ties go to the most negative action", func(t *testing.T) {
		p := smallParams()
		p.RentalRates = [2]float64{0, 0}
		p.MoveCost = 0
		pi, err := NewPolicyIteration(p)
		require.NoError(t, err)

		// Every move is worth nothing, so all feasible actions tie
		a, best := pi.Greedy(mdp.State{First: 3, Second: 1}, NewValueTable(p.MaxCars))

		require.Equal(t, mdp.Action(-1), a)
		require.Zero(t, best)
	})
}

type countingObserver struct {
	NoObserver
	sweeps int
}

func (c *countingObserver) SweepCompleted(int, int, float64) {
	c.sweeps++
}

func TestPolicyIterationEvaluate(t *testing.T) {
	t.Run("synchronous evaluation reaches the same values", func(t *testing.T) {
		p := smallParams()
		policy := NewPolicyTable(p.MaxCars)
		policy.Set(mdp.State{First: 4, Second: 1}, 2)

		inPlace, err := NewPolicyIteration(p, WithTolerance(1e-7))
		require.NoError(t, err)
		synchronous, err := NewPolicyIteration(p, WithTolerance(1e-7), WithSynchronous())
		require.NoError(t, err)

		a := NewValueTable(p.MaxCars)
		_, err = inPlace.Evaluate(context.Background(), 1, policy, a)
		require.NoError(t, err)
		b := NewValueTable(p.MaxCars)
		_, err = synchronous.Evaluate(context.Background(), 1, policy, b)
		require.NoError(t, err)

		require.Less(t, a.MaxChange(b), 1e-4)
	})

	t.Run("synchronous evaluation does not depend on workers", func(t *testing.T) {
		p := smallParams()
		policy := NewPolicyTable(p.MaxCars)

		single, err := NewPolicyIteration(p, WithSynchronous(), WithWorkers(1))
		require.NoError(t, err)
		parallel, err := NewPolicyIteration(p, WithSynchronous(), WithWorkers(4))
		require.NoError(t, err)

		a := NewValueTable(p.MaxCars)
		sweepsA, err := single.Evaluate(context.Background(), 1, policy, a)
		require.NoError(t, err)
		b := NewValueTable(p.MaxCars)
		sweepsB, err := parallel.Evaluate(context.Background(), 1, policy, b)
		require.NoError(t, err)

		require.Equal(t, sweepsA, sweepsB)
		require.Equal(t, a.Values(), b.Values(), "Double buffering should be bit-for-bit reproducible")
	})

	t.Run("reporting non-convergence", func(t *testing.T) {
		counting := &countingObserver{}
		pi, err := NewPolicyIteration(defaultParams(), WithSimplifiedReturns(true), WithMaxSweeps(2), WithObserver(counting))
		require.NoError(t, err)

		_, err = pi.Run(context.Background())

		require.ErrorIs(t, err, ErrNotConverged)
		require.Equal(t, 2, counting.sweeps)
	})
}

func TestPolicyIterationRunLimits(t *testing.T) {
	t.Run("reporting an unstable policy after the last iteration", func(t *testing.T) {
		pi, err := NewPolicyIteration(smallParams(), WithSimplifiedReturns(true), WithMaxIterations(1))
		require.NoError(t, err)

		_, err = pi.Run(context.Background())

		require.ErrorIs(t, err, ErrNotConverged)
	})

	t.Run("stopping on a cancelled context", func(t *testing.T) {
		pi, err := NewPolicyIteration(smallParams())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = pi.Run(ctx)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("full returns with parallel improvement", func(t *testing.T) {
		p := smallParams()
		sequential, err := NewPolicyIteration(p)
		require.NoError(t, err)
		parallel, err := NewPolicyIteration(p, WithWorkers(3))
		require.NoError(t, err)

		a, err := sequential.Run(context.Background())
		require.NoError(t, err)
		b, err := parallel.Run(context.Background())
		require.NoError(t, err)

		require.True(t, a.Policy.Equal(b.Policy), "Improvement should not depend on workers")
		require.Equal(t, a.Iterations, b.Iterations)
		require.Equal(t, mdp.Action(0), a.Policy.At(mdp.State{}))
	})
}

func TestPolicyTableDiff(t *testing.T) {
	t.Run("counting differing states", func(t *testing.T) {
		p := NewPolicyTable(3)
		q := p.Clone()
		require.Zero(t, p.Diff(q))

		q.Set(mdp.State{First: 2, Second: 1}, 1)
		q.Set(mdp.State{First: 0, Second: 3}, -2)
		require.Equal(t, 2, p.Diff(q))
		require.Equal(t, 2, q.Diff(p), "Diff should be symmetric")
	})

	t.Run("panicking on mismatched sizes", func(t *testing.T) {
		require.Panics(t, func() { NewPolicyTable(2).Diff(NewPolicyTable(3)) })
	})
}
