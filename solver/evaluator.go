package solver

import (
	"fmt"

	"carrental/mdp"
)

// Evaluator computes the expected return of a state-action pair under a value
// table. It never mutates the table, so concurrent calls are safe as long as
// nobody writes the table they read.
type Evaluator struct {
	params mdp.Params
	cache  *mdp.Cache
}

func NewEvaluator(params mdp.Params, cache *mdp.Cache) *Evaluator {
	if cache == nil {
		cache = mdp.NewCache(mdp.Poisson{})
	}
	return &Evaluator{params: params, cache: cache}
}

// ExpectedReturn is the move cost of a plus the expected rental credit and
// discounted next-state value, summed over rental requests (and returns unless
// simplifyReturns) below the truncation bound.
//
// The caller must pass a feasible action: it panics if the move leaves a
// location with a negative car count.
func (e *Evaluator) ExpectedReturn(s mdp.State, a mdp.Action, values *ValueTable, simplifyReturns bool) float64 {
	p := e.params
	if s.First-int(a) < 0 || s.Second+int(a) < 0 {
		panic(fmt.Sprintf("action %d is infeasible in state %v", a, s))
	}

	ret := -p.MoveCost * float64(mdp.Abs(a))

	first := min(s.First-int(a), p.MaxCars)
	second := min(s.Second+int(a), p.MaxCars)

	n := p.Truncation
	rentFirst := e.cache.Masses(p.RentalRates[0], n)
	rentSecond := e.cache.Masses(p.RentalRates[1], n)

	var returnFirst, returnSecond []float64
	if !simplifyReturns {
		returnFirst = e.cache.Masses(p.ReturnRates[0], n)
		returnSecond = e.cache.Masses(p.ReturnRates[1], n)
	}
	constant := p.ConstantReturns()

	for r1 := 0; r1 < n; r1++ {
		for r2 := 0; r2 < n; r2++ {
			prob := rentFirst[r1] * rentSecond[r2]

			valid1 := min(first, r1)
			valid2 := min(second, r2)
			reward := float64(valid1+valid2) * p.RentalCredit
			left1 := first - valid1
			left2 := second - valid2

			if simplifyReturns {
				c1 := min(left1+constant[0], p.MaxCars)
				c2 := min(left2+constant[1], p.MaxCars)
				ret += prob * (reward + p.Discount*values.at(c1, c2))
				continue
			}

			for u1 := 0; u1 < n; u1++ {
				for u2 := 0; u2 < n; u2++ {
					q := prob * returnFirst[u1] * returnSecond[u2]
					c1 := min(left1+u1, p.MaxCars)
					c2 := min(left2+u2, p.MaxCars)
					ret += q * (reward + p.Discount*values.at(c1, c2))
				}
			}
		}
	}

	return ret
}
