package solver

// Observer receives the intermediate results of a run. Tables passed to it
// are copies the observer may keep.
type Observer interface {
	// PolicyUpdated is called before each evaluation phase.
	PolicyUpdated(iteration int, policy *PolicyTable)
	SweepCompleted(iteration, sweep int, maxChange float64)
	ImprovementCompleted(iteration int, stable bool, changed int)
	// Converged is called once, after the terminal improvement.
	Converged(values *ValueTable, policy *PolicyTable)
}

type NoObserver struct{}

func (NoObserver) PolicyUpdated(int, *PolicyTable)     {}
func (NoObserver) SweepCompleted(int, int, float64)    {}
func (NoObserver) ImprovementCompleted(int, bool, int) {}
func (NoObserver) Converged(*ValueTable, *PolicyTable) {}

type PolicySnapshot struct {
	Iteration int
	Policy    *PolicyTable
}

type SweepRecord struct {
	Iteration int
	Sweep     int
	MaxChange float64
}

type ImprovementRecord struct {
	Iteration int
	Stable    bool
	Changed   int
}

// Recorder keeps everything it observes in memory.
type Recorder struct {
	Policies     []PolicySnapshot
	Sweeps       []SweepRecord
	Improvements []ImprovementRecord
	Values       *ValueTable
	Policy       *PolicyTable
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PolicyUpdated(iteration int, policy *PolicyTable) {
	r.Policies = append(r.Policies, PolicySnapshot{Iteration: iteration, Policy: policy})
}

func (r *Recorder) SweepCompleted(iteration, sweep int, maxChange float64) {
	r.Sweeps = append(r.Sweeps, SweepRecord{Iteration: iteration, Sweep: sweep, MaxChange: maxChange})
}

func (r *Recorder) ImprovementCompleted(iteration int, stable bool, changed int) {
	r.Improvements = append(r.Improvements, ImprovementRecord{Iteration: iteration, Stable: stable, Changed: changed})
}

func (r *Recorder) Converged(values *ValueTable, policy *PolicyTable) {
	r.Values = values
	r.Policy = policy
}

// SweepsOf returns the max changes of one evaluation phase in sweep order.
func (r *Recorder) SweepsOf(iteration int) []float64 {
	var changes []float64
	for _, s := range r.Sweeps {
		if s.Iteration == iteration {
			changes = append(changes, s.MaxChange)
		}
	}
	return changes
}
