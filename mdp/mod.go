package mdp

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
)

// State is the number of cars at each location at the start of a day.
type State struct {
	First  int
	Second int
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d)", s.First, s.Second)
}

// Action is the net number of cars moved overnight from the first location to
// the second. Negative actions move cars from the second location to the first.
type Action int

// Feasible reports whether the source location holds enough cars for the move.
func (s State) Feasible(a Action) bool {
	if a >= 0 {
		return int(a) <= s.First
	}
	return -int(a) <= s.Second
}

// Params bundles the fixed parameters of a run. Index 0 of the rate arrays is
// the first location, index 1 the second.
type Params struct {
	MaxCars      int
	MaxMove      int
	RentalRates  [2]float64
	ReturnRates  [2]float64
	Truncation   int
	RentalCredit float64
	MoveCost     float64
	Discount     float64
}

var ErrInvalidParams = errors.New("invalid parameters")

func (p Params) Validate() error {
	switch {
	case p.MaxCars < 0:
		return fmt.Errorf("%w: max cars %d is negative", ErrInvalidParams, p.MaxCars)
	case p.MaxMove < 0:
		return fmt.Errorf("%w: max move %d is negative", ErrInvalidParams, p.MaxMove)
	case p.Truncation <= 0:
		return fmt.Errorf("%w: truncation bound %d must be positive", ErrInvalidParams, p.Truncation)
	case p.Discount <= 0 || p.Discount >= 1:
		return fmt.Errorf("%w: discount %v must lie in (0,1)", ErrInvalidParams, p.Discount)
	}
	for i := 0; i < 2; i++ {
		if p.RentalRates[i] < 0 || p.ReturnRates[i] < 0 {
			return fmt.Errorf("%w: rates of location %d must not be negative", ErrInvalidParams, i+1)
		}
	}
	return nil
}

// Contains reports whether both counts of s lie in [0, MaxCars].
func (p Params) Contains(s State) bool {
	return s.First >= 0 && s.First <= p.MaxCars && s.Second >= 0 && s.Second <= p.MaxCars
}

// Actions enumerates [-MaxMove, MaxMove] in ascending order.
func (p Params) Actions() []Action {
	return lo.Map(lo.RangeFrom(-p.MaxMove, 2*p.MaxMove+1), func(a int, _ int) Action {
		return Action(a)
	})
}

// States enumerates every state in row-major order (first location outer).
func (p Params) States() []State {
	states := make([]State, 0, (p.MaxCars+1)*(p.MaxCars+1))
	for first := 0; first <= p.MaxCars; first++ {
		for second := 0; second <= p.MaxCars; second++ {
			states = append(states, State{First: first, Second: second})
		}
	}
	return states
}

// ConstantReturns is the per-location return count used when returns are
// simplified to their expectation.
func (p Params) ConstantReturns() [2]int {
	return [2]int{int(p.ReturnRates[0] + 0.5), int(p.ReturnRates[1] + 0.5)}
}

func Clamp[T constraints.Ordered](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
