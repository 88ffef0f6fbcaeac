package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"carrental/mdp"
	"carrental/solver"

	"github.com/rs/xid"
)

type Setup struct {
	RunID           string        `json:"runId"`
	Params          mdp.Params    `json:"params"`
	SimplifyReturns bool          `json:"simplifyReturns"`
	Synchronous     bool          `json:"synchronous"`
	Workers         int           `json:"workers"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	Duration        time.Duration `json:"duration"`
	Iterations      int           `json:"iterations"`
	Sweeps          int64         `json:"sweeps"`
	Evaluations     int64         `json:"evaluations"`
}

type Writer struct {
	runID   string
	baseDir string
}

// NewWriter creates a run directory under root named by a fresh run ID.
func NewWriter(root string) (*Writer, error) {
	runID := xid.New().String()
	baseDir := filepath.Join(root, runID)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		runID:   runID,
		baseDir: baseDir,
	}, nil
}

func (w *Writer) RunID() string {
	return w.runID
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) Path(name string) string {
	return filepath.Join(w.baseDir, name)
}

func (w *Writer) WriteSetup(setup Setup) error {
	setup.RunID = w.runID

	f, err := os.Create(w.Path("setup.json"))
	if err != nil {
		return fmt.Errorf("failed to create setup file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(setup); err != nil {
		return fmt.Errorf("failed to write setup: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	f, err := os.Create(w.Path(name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}

// WritePolicies writes one policy_<iteration>.csv per snapshot.
func (w *Writer) WritePolicies(snapshots []solver.PolicySnapshot) error {
	for _, snapshot := range snapshots {
		rows := [][]string{}
		for first, row := range snapshot.Policy.Rows() {
			for second, action := range row {
				rows = append(rows, []string{
					strconv.Itoa(first),
					strconv.Itoa(second),
					strconv.Itoa(action),
				})
			}
		}
		name := fmt.Sprintf("policy_%d.csv", snapshot.Iteration)
		if err := w.writeCSV(name, []string{"first", "second", "action"}, rows); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) WriteValues(values *solver.ValueTable) error {
	rows := [][]string{}
	for first, row := range values.Rows() {
		for second, value := range row {
			rows = append(rows, []string{
				strconv.Itoa(first),
				strconv.Itoa(second),
				strconv.FormatFloat(value, 'f', 6, 64),
			})
		}
	}
	return w.writeCSV("values.csv", []string{"first", "second", "value"}, rows)
}

func (w *Writer) WriteSweeps(sweeps []solver.SweepRecord) error {
	rows := make([][]string, 0, len(sweeps))
	for _, s := range sweeps {
		rows = append(rows, []string{
			strconv.Itoa(s.Iteration),
			strconv.Itoa(s.Sweep),
			strconv.FormatFloat(s.MaxChange, 'g', -1, 64),
		})
	}
	return w.writeCSV("sweeps.csv", []string{"iteration", "sweep", "max_change"}, rows)
}
