package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"carrental/mdp"
	"carrental/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrNotConverged = errors.New("policy iteration did not converge")

type Option func(pi *PolicyIteration)

type PolicyIteration struct {
	params        mdp.Params
	actions       []mdp.Action
	evaluator     *Evaluator
	cache         *mdp.Cache
	simplify      bool
	tolerance     float64
	maxSweeps     int
	maxIterations int
	synchronous   bool
	workers       int
	observer      Observer
	metrics       Collector
}

type Result struct {
	Values     *ValueTable
	Policy     *PolicyTable
	Iterations int
	Metrics    RunMetrics
}

// WithSimplifiedReturns replaces the return distributions by their expected
// counts.
func WithSimplifiedReturns(simplify bool) Option {
	return func(pi *PolicyIteration) {
		pi.simplify = simplify
	}
}

func WithTolerance(tolerance float64) Option {
	return func(pi *PolicyIteration) {
		if tolerance > 0 {
			pi.tolerance = tolerance
		}
	}
}

func WithMaxSweeps(sweeps int) Option {
	return func(pi *PolicyIteration) {
		if sweeps > 0 {
			pi.maxSweeps = sweeps
		}
	}
}

func WithMaxIterations(iterations int) Option {
	return func(pi *PolicyIteration) {
		if iterations > 0 {
			pi.maxIterations = iterations
		}
	}
}

// WithSynchronous evaluates every state of a sweep against the values at the
// start of the sweep instead of updating in place.
func WithSynchronous() Option {
	return func(pi *PolicyIteration) {
		pi.synchronous = true
	}
}

// WithWorkers spreads the rows of a sweep over goroutines. Evaluation sweeps
// only use them in synchronous mode.
func WithWorkers(workers int) Option {
	return func(pi *PolicyIteration) {
		if workers > 0 {
			pi.workers = workers
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(pi *PolicyIteration) {
		if observer != nil {
			pi.observer = observer
		}
	}
}

func WithCache(cache *mdp.Cache) Option {
	return func(pi *PolicyIteration) {
		if cache != nil {
			pi.cache = cache
		}
	}
}

func WithMetrics() Option {
	return func(pi *PolicyIteration) {
		pi.metrics = NewCollector()
	}
}

func NewPolicyIteration(params mdp.Params, options ...Option) (*PolicyIteration, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	pi := &PolicyIteration{ // Default values
		params:        params,
		actions:       params.Actions(),
		tolerance:     meta.TOLERANCE,
		maxSweeps:     meta.MAX_SWEEPS,
		maxIterations: meta.MAX_ITERATIONS,
		workers:       1,
		observer:      NoObserver{},
		metrics:       NewNoCollector(),
	}
	for _, option := range options {
		option(pi)
	}
	if pi.cache == nil {
		pi.cache = mdp.NewCache(mdp.Poisson{})
	}
	pi.evaluator = NewEvaluator(params, pi.cache)

	if pi.workers > 1 && !pi.synchronous {
		log.Warn().Msgf("in-place evaluation runs on a single goroutine; %d workers only apply to improvement", pi.workers)
	}
	return pi, nil
}

func (pi *PolicyIteration) Evaluator() *Evaluator {
	return pi.evaluator
}

func (pi *PolicyIteration) evaluate(s mdp.State, a mdp.Action, values *ValueTable) float64 {
	pi.metrics.AddEvaluation()
	return pi.evaluator.ExpectedReturn(s, a, values, pi.simplify)
}

// Run alternates evaluation and improvement, starting from the zero policy
// and zero values, until an improvement leaves the policy unchanged.
func (pi *PolicyIteration) Run(ctx context.Context) (*Result, error) {
	values := NewValueTable(pi.params.MaxCars)
	policy := NewPolicyTable(pi.params.MaxCars)

	pi.metrics.Start()
	for iteration := 1; iteration <= pi.maxIterations; iteration++ {
		pi.observer.PolicyUpdated(iteration, policy.Clone())

		sweeps, err := pi.Evaluate(ctx, iteration, policy, values)
		if err != nil {
			return nil, err
		}
		log.Info().Msgf("iteration %d: policy evaluated in %d sweeps", iteration, sweeps)

		stable, changed, err := pi.Improve(ctx, policy, values)
		if err != nil {
			return nil, err
		}
		pi.metrics.AddIteration()
		pi.observer.ImprovementCompleted(iteration, stable, changed)
		log.Info().Msgf("iteration %d: policy stable: %t (%d states changed)", iteration, stable, changed)

		if stable {
			pi.observer.Converged(values.Clone(), policy.Clone())
			return &Result{
				Values:     values,
				Policy:     policy,
				Iterations: iteration,
				Metrics:    pi.metrics.Complete(),
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: policy still changing after %d iterations", ErrNotConverged, pi.maxIterations)
}

// Evaluate sweeps all states under a fixed policy until no value changes by
// more than the tolerance, and returns the number of sweeps.
func (pi *PolicyIteration) Evaluate(ctx context.Context, iteration int, policy *PolicyTable, values *ValueTable) (int, error) {
	for sweep := 1; sweep <= pi.maxSweeps; sweep++ {
		if err := ctx.Err(); err != nil {
			return sweep - 1, err
		}

		old := values.Clone()
		if pi.synchronous {
			if err := pi.sweepSynchronous(ctx, policy, old, values); err != nil {
				return sweep - 1, err
			}
		} else {
			pi.sweepInPlace(policy, values)
		}

		delta := values.MaxChange(old)
		pi.metrics.AddSweep()
		pi.observer.SweepCompleted(iteration, sweep, delta)
		log.Info().Msgf("iteration %d sweep %d: max value change %.6f", iteration, sweep, delta)

		if delta < pi.tolerance {
			return sweep, nil
		}
	}
	return pi.maxSweeps, fmt.Errorf("%w: policy evaluation still changing after %d sweeps", ErrNotConverged, pi.maxSweeps)
}

// sweepInPlace lets later states of the sweep read the values already
// updated earlier in it.
func (pi *PolicyIteration) sweepInPlace(policy *PolicyTable, values *ValueTable) {
	for first := 0; first <= pi.params.MaxCars; first++ {
		for second := 0; second <= pi.params.MaxCars; second++ {
			s := mdp.State{First: first, Second: second}
			values.Set(s, pi.evaluate(s, policy.At(s), values))
		}
	}
}

func (pi *PolicyIteration) sweepSynchronous(ctx context.Context, policy *PolicyTable, old, values *ValueTable) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pi.workers)
	for first := 0; first <= pi.params.MaxCars; first++ {
		first := first
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for second := 0; second <= pi.params.MaxCars; second++ {
				s := mdp.State{First: first, Second: second}
				values.Set(s, pi.evaluate(s, policy.At(s), old))
			}
			return nil
		})
	}
	return g.Wait()
}

// Improve makes the policy greedy with respect to the values. It reports
// whether no state changed its action and how many did.
func (pi *PolicyIteration) Improve(ctx context.Context, policy *PolicyTable, values *ValueTable) (bool, int, error) {
	var changed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pi.workers)
	for first := 0; first <= pi.params.MaxCars; first++ {
		first := first
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for second := 0; second <= pi.params.MaxCars; second++ {
				s := mdp.State{First: first, Second: second}
				best, _ := pi.Greedy(s, values)
				if best != policy.At(s) {
					policy.Set(s, best)
					changed.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, 0, err
	}

	n := int(changed.Load())
	return n == 0, n, nil
}

// Greedy returns the first action, in ascending order, with the highest
// expected return. Infeasible actions score -Inf and are never picked.
func (pi *PolicyIteration) Greedy(s mdp.State, values *ValueTable) (mdp.Action, float64) {
	bestAction := mdp.Action(0)
	best := math.Inf(-1)
	for _, a := range pi.actions {
		ret := math.Inf(-1)
		if s.Feasible(a) {
			ret = pi.evaluate(s, a, values)
		}
		if ret > best {
			best = ret
			bestAction = a
		}
	}
	return bestAction, best
}
