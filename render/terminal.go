package render

import (
	"fmt"
	"io"

	"carrental/solver"

	"github.com/aybabtme/uniplot/histogram"
)

const reset = "\033[0m"

// heatColor maps a fraction in [0,1] onto the 256-color grayscale ramp.
func heatColor(fraction float64) string {
	start := 232
	end := 255
	colorCode := int(float64(start) + fraction*float64(end-start))
	return fmt.Sprintf("\033[48;5;%dm", colorCode)
}

// terminal draws the grid with the first location growing upwards, as in the
// usual plots of this problem.
func terminal(w io.Writer, grid [][]float64, format string) error {
	low, high := bounds(grid)
	for first := len(grid) - 1; first >= 0; first-- {
		if _, err := fmt.Fprintf(w, "%3d ", first); err != nil {
			return err
		}
		for _, v := range grid[first] {
			fraction := 0.0
			if high > low {
				fraction = (v - low) / (high - low)
			}
			if _, err := fmt.Fprintf(w, "%s"+format+"%s", heatColor(fraction), v, reset); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func TerminalPolicy(w io.Writer, policy *solver.PolicyTable) error {
	return terminal(w, policyGrid(policy), "%3.0f")
}

func TerminalValues(w io.Writer, values *solver.ValueTable) error {
	return terminal(w, values.Rows(), "%5.0f")
}

// Histogram prints the distribution of state values.
func Histogram(w io.Writer, values *solver.ValueTable, bins int) error {
	hist := histogram.Hist(bins, values.Values())
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
