package solver

import (
	"sync/atomic"
	"time"
)

type RunMetrics struct {
	StartTime   time.Time
	Duration    time.Duration
	Iterations  int64
	Sweeps      int64
	Evaluations int64 // Expected-return computations
}

type Collector interface {
	Start()
	AddEvaluation()
	AddSweep()
	AddIteration()
	Complete() RunMetrics
}

type collector struct {
	startTime   time.Time
	iterations  atomic.Int64
	sweeps      atomic.Int64
	evaluations atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.startTime = time.Now()
}

func (m *collector) AddEvaluation() {
	m.evaluations.Add(1)
}

func (m *collector) AddSweep() {
	m.sweeps.Add(1)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) Complete() RunMetrics {
	return RunMetrics{
		StartTime:   m.startTime,
		Duration:    time.Since(m.startTime),
		Iterations:  m.iterations.Load(),
		Sweeps:      m.sweeps.Load(),
		Evaluations: m.evaluations.Load(),
	}
}

type noCollector struct{}

func NewNoCollector() Collector {
	return &noCollector{}
}

func (m *noCollector) Start()               {}
func (m *noCollector) AddEvaluation()       {}
func (m *noCollector) AddSweep()            {}
func (m *noCollector) AddIteration()        {}
func (m *noCollector) Complete() RunMetrics { return RunMetrics{} }
