package render

import (
	"bytes"
	"strings"
	"testing"

	"carrental/mdp"
	"carrental/solver"

	"github.com/matryer/is"
)

func fixtures() ([]solver.PolicySnapshot, *solver.ValueTable) {
	first := solver.NewPolicyTable(3)
	second := first.Clone()
	second.Set(mdp.State{First: 3, Second: 0}, 2)
	second.Set(mdp.State{First: 0, Second: 3}, -1)

	values := solver.NewValueTable(3)
	for first := 0; first <= 3; first++ {
		for s := 0; s <= 3; s++ {
			values.Set(mdp.State{First: first, Second: s}, float64(100+10*first+s))
		}
	}
	return []solver.PolicySnapshot{{Iteration: 1, Policy: first}, {Iteration: 2, Policy: second}}, values
}

func TestWritePage(t *testing.T) {
	is := is.New(t)
	snapshots, values := fixtures()
	var buf bytes.Buffer

	err := WritePage(&buf, snapshots, values)

	is.NoErr(err)
	html := buf.String()
	is.True(strings.Contains(html, "policy (iteration 1)"))
	is.True(strings.Contains(html, "policy (iteration 2)"))
	is.True(strings.Contains(html, "cars at second location"))
	is.True(strings.Contains(html, "echarts"))
}

func TestBounds(t *testing.T) {
	is := is.New(t)
	low, high := bounds([][]float64{{3, -1}, {7, 2}})
	is.Equal(low, -1.0)
	is.Equal(high, 7.0)

	low, high = bounds(nil)
	is.Equal(low, 0.0)
	is.Equal(high, 0.0)
}

func TestTerminalPolicy(t *testing.T) {
	is := is.New(t)
	snapshots, _ := fixtures()
	var buf bytes.Buffer

	is.NoErr(TerminalPolicy(&buf, snapshots[1].Policy))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	is.Equal(len(lines), 4)                          // one line per first-location count
	is.True(strings.HasPrefix(lines[0], "  3 "))     // highest count on top
	is.True(strings.Contains(lines[0], "  2"+reset)) // move from the full first location
	is.True(strings.Contains(lines[3], " -1"+reset))
	is.True(strings.Contains(lines[0], heatColor(1)))
}

func TestTerminalValues(t *testing.T) {
	is := is.New(t)
	_, values := fixtures()
	var buf bytes.Buffer

	is.NoErr(TerminalValues(&buf, values))

	out := buf.String()
	is.True(strings.Contains(out, heatColor(0)+"  100"+reset)) // lowest value is darkest
	is.True(strings.Contains(out, heatColor(1)+"  133"+reset)) // highest value is lightest
}

func TestHistogram(t *testing.T) {
	is := is.New(t)
	_, values := fixtures()
	var buf bytes.Buffer

	is.NoErr(Histogram(&buf, values, 4))
	is.True(buf.Len() > 0)
}
