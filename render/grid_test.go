package render

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/trajectory-plotter/core"
)

func sampleCoordinates() []core.Coordinate {
	return []core.Coordinate{
		{X: 0, Y: 0},
		{X: 1, Y: 1.4},
		{X: 2, Y: 1.6},
		{X: 3, Y: 0.5},
	}
}

func TestRenderPlotLayout(t *testing.T) {
	out, err := NewGridRenderer(sampleCoordinates()).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}

	want := "\n" +
		"⊣  ∙ \n" +
		"⊣ ∙ ∙\n" +
		"⊣∙   \n" +
		" TTTT\n"
	if out != want {
		t.Fatalf("RenderPlot() =\n%q\nwant\n%q", out, want)
	}
}

func TestRenderPlotLineCount(t *testing.T) {
	for _, tc := range []struct {
		speed, height, angle float64
	}{
		{10, 0, 45},
		{10, 3, 45},
		{20, 5, 70},
		{8, 40, 5},
	} {
		p, err := core.NewProjectile(tc.speed, tc.height, tc.angle)
		if err != nil {
			t.Fatalf("NewProjectile: %v", err)
		}
		coords, err := p.Coordinates()
		if err != nil {
			t.Fatalf("Coordinates: %v", err)
		}

		out, err := NewGridRenderer(coords).RenderPlot()
		if err != nil {
			t.Fatalf("RenderPlot: %v", err)
		}
		_, yMax, err := Bounds(RoundCoordinates(coords))
		if err != nil {
			t.Fatalf("Bounds: %v", err)
		}
		if got := strings.Count(out, "\n"); got != yMax+3 {
			t.Errorf("%+v: RenderPlot() has %d lines, want %d", tc, got, yMax+3)
		}
		if got := strings.Count(out, string(Marker)); got != len(coords) {
			t.Errorf("%+v: RenderPlot() has %d markers, want %d", tc, got, len(coords))
		}
	}
}

func TestRenderPlotRoundsHalfAwayFromZero(t *testing.T) {
	coords := []core.Coordinate{{X: 0, Y: 2.5}}
	out, err := NewGridRenderer(coords).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	// 2.5 rounds to 3: four plot rows with the marker on the top one.
	want := "\n⊣∙\n⊣ \n⊣ \n⊣ \n T\n"
	if out != want {
		t.Fatalf("RenderPlot() = %q, want %q", out, want)
	}
}

func TestRenderPlotEmptySequence(t *testing.T) {
	out, err := NewGridRenderer(nil).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	if want := "\n⊣ \n T\n"; out != want {
		t.Fatalf("RenderPlot() = %q, want %q", out, want)
	}
}

func TestRenderPlotClampsBelowGround(t *testing.T) {
	coords := []core.Coordinate{{X: 0, Y: 1}, {X: 1, Y: -0.7}}
	out, err := NewGridRenderer(coords).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	if want := "\n⊣∙ \n⊣ ∙\n TT\n"; out != want {
		t.Fatalf("RenderPlot() = %q, want %q", out, want)
	}
}

func TestRenderPlotLastWriteWins(t *testing.T) {
	coords := []core.Coordinate{{X: 0, Y: 0.2}, {X: 0, Y: -0.2}}
	out, err := NewGridRenderer(coords).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	if got := strings.Count(out, string(Marker)); got != 1 {
		t.Fatalf("RenderPlot() has %d markers, want 1", got)
	}
}

func TestRenderPlotDoesNotMutateInput(t *testing.T) {
	coords := sampleCoordinates()
	if _, err := NewGridRenderer(coords).RenderPlot(); err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	for i, c := range sampleCoordinates() {
		if coords[i] != c {
			t.Fatalf("coords[%d] = %+v, want %+v", i, coords[i], c)
		}
	}
}

func TestRenderPlotOverflow(t *testing.T) {
	_, err := NewGridRenderer(sampleCoordinates(), WithMaxGridCells(10)).RenderPlot()
	if !errors.Is(err, core.ErrRangeOverflow) {
		t.Fatalf("RenderPlot() error = %v, want ErrRangeOverflow", err)
	}

	// Within the sampling bound but far beyond the default grid bound.
	p, err := core.NewProjectile(300, 0, 45)
	if err != nil {
		t.Fatalf("NewProjectile: %v", err)
	}
	coords, err := p.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if _, err := NewGridRenderer(coords).RenderPlot(); !errors.Is(err, core.ErrRangeOverflow) {
		t.Fatalf("RenderPlot() error = %v, want ErrRangeOverflow", err)
	}
}

func TestRenderPlotHeightBeyondIntRangeOverflows(t *testing.T) {
	// A launch from 1e20 m barely moves sideways, so only the height can
	// break the cell bound.
	p, err := core.NewProjectile(4e-10, 1e20, 0)
	if err != nil {
		t.Fatalf("NewProjectile: %v", err)
	}
	coords, err := p.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if len(coords) != 2 {
		t.Fatalf("len(Coordinates()) = %d, want 2", len(coords))
	}

	out, err := NewGridRenderer(coords).RenderPlot()
	if !errors.Is(err, core.ErrRangeOverflow) {
		t.Fatalf("RenderPlot() = %q, %v; want ErrRangeOverflow", out, err)
	}
}

func TestRenderPlotRejectsNonFiniteHeights(t *testing.T) {
	for _, y := range []float64{math.NaN(), math.Inf(1)} {
		coords := []core.Coordinate{{X: 0, Y: 1}, {X: 1, Y: y}}
		if _, err := NewGridRenderer(coords).RenderPlot(); !errors.Is(err, core.ErrRangeOverflow) {
			t.Errorf("RenderPlot() with y=%v error = %v, want ErrRangeOverflow", y, err)
		}
	}
}

func TestRenderPlotVerticalLaunch(t *testing.T) {
	p, err := core.NewProjectile(10, 50, 90)
	if err != nil {
		t.Fatalf("NewProjectile: %v", err)
	}
	coords, err := p.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}

	out, err := NewGridRenderer(coords).RenderPlot()
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	if !strings.HasPrefix(out, "\n⊣∙\n") {
		t.Fatalf("RenderPlot() should mark the launch point on the top row:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 50+3 {
		t.Fatalf("RenderPlot() has %d lines, want 53", got)
	}
}

func TestRoundCoordinatesSaturates(t *testing.T) {
	got := RoundCoordinates([]core.Coordinate{
		{X: 0, Y: 1e20},
		{X: 1, Y: -1e20},
		{X: 2, Y: math.NaN()},
		{X: 3, Y: 2.5},
	})
	want := []Point{{0, math.MaxInt32}, {1, 0}, {2, 0}, {3, 3}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RoundCoordinates()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBounds(t *testing.T) {
	xMax, yMax, err := Bounds(RoundCoordinates(sampleCoordinates()))
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if xMax != 3 || yMax != 2 {
		t.Fatalf("Bounds() = (%d, %d), want (3, 2)", xMax, yMax)
	}

	if _, _, err := Bounds(nil); !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("Bounds(nil) error = %v, want ErrDegenerateInput", err)
	}
}
