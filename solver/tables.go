package solver

import (
	"fmt"
	"math"

	"carrental/mdp"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValueTable holds the value estimate of every state, indexed by
// (first, second) car counts.
type ValueTable struct {
	size int
	data *mat.Dense
}

func NewValueTable(maxCars int) *ValueTable {
	size := maxCars + 1
	return &ValueTable{size: size, data: mat.NewDense(size, size, nil)}
}

func (v *ValueTable) check(first, second int) {
	if first < 0 || first >= v.size || second < 0 || second >= v.size {
		panic(fmt.Sprintf("value table index (%d,%d) outside [0,%d]", first, second, v.size-1))
	}
}

func (v *ValueTable) At(s mdp.State) float64 {
	return v.at(s.First, s.Second)
}

func (v *ValueTable) at(first, second int) float64 {
	v.check(first, second)
	return v.data.At(first, second)
}

func (v *ValueTable) Set(s mdp.State, value float64) {
	v.check(s.First, s.Second)
	v.data.Set(s.First, s.Second, value)
}

func (v *ValueTable) Size() int {
	return v.size
}

func (v *ValueTable) Clone() *ValueTable {
	return &ValueTable{size: v.size, data: mat.DenseCopyOf(v.data)}
}

// MaxChange is the largest absolute difference to another table of the same
// shape.
func (v *ValueTable) MaxChange(other *ValueTable) float64 {
	if other.size != v.size {
		panic(fmt.Sprintf("value tables of size %d and %d cannot be compared", v.size, other.size))
	}
	return floats.Distance(v.data.RawMatrix().Data, other.data.RawMatrix().Data, math.Inf(1))
}

// Rows copies the table into a dense slice of rows.
func (v *ValueTable) Rows() [][]float64 {
	rows := make([][]float64, v.size)
	for i := range rows {
		rows[i] = mat.Row(nil, i, v.data)
	}
	return rows
}

// Values flattens the table in row-major order.
func (v *ValueTable) Values() []float64 {
	out := make([]float64, v.size*v.size)
	copy(out, v.data.RawMatrix().Data)
	return out
}

// PolicyTable holds the action taken in every state.
type PolicyTable struct {
	size    int
	actions []mdp.Action
}

func NewPolicyTable(maxCars int) *PolicyTable {
	size := maxCars + 1
	return &PolicyTable{size: size, actions: make([]mdp.Action, size*size)}
}

func (p *PolicyTable) index(s mdp.State) int {
	if s.First < 0 || s.First >= p.size || s.Second < 0 || s.Second >= p.size {
		panic(fmt.Sprintf("policy table index %v outside [0,%d]", s, p.size-1))
	}
	return s.First*p.size + s.Second
}

func (p *PolicyTable) At(s mdp.State) mdp.Action {
	return p.actions[p.index(s)]
}

func (p *PolicyTable) Set(s mdp.State, a mdp.Action) {
	p.actions[p.index(s)] = a
}

func (p *PolicyTable) Size() int {
	return p.size
}

func (p *PolicyTable) Clone() *PolicyTable {
	actions := make([]mdp.Action, len(p.actions))
	copy(actions, p.actions)
	return &PolicyTable{size: p.size, actions: actions}
}

// Equal reports whether both tables pick the same action everywhere.
func (p *PolicyTable) Equal(other *PolicyTable) bool {
	if p.size != other.size {
		return false
	}
	for i := range p.actions {
		if p.actions[i] != other.actions[i] {
			return false
		}
	}
	return true
}

// Diff counts the states in which the tables pick different actions.
func (p *PolicyTable) Diff(other *PolicyTable) int {
	if p.size != other.size {
		panic(fmt.Sprintf("policy tables of size %d and %d cannot be compared", p.size, other.size))
	}
	count := 0
	for i := range p.actions {
		if p.actions[i] != other.actions[i] {
			count++
		}
	}
	return count
}

func (p *PolicyTable) Rows() [][]int {
	rows := make([][]int, p.size)
	for i := range rows {
		rows[i] = make([]int, p.size)
		for j := range rows[i] {
			rows[i][j] = int(p.actions[i*p.size+j])
		}
	}
	return rows
}
