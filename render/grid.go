// Package render turns sampled flight paths into text: an aligned
// coordinate table and a character-grid plot.
package render

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/trajectory-plotter/core"
)

const (
	// Marker is written into the grid for every plotted coordinate.
	Marker = '∙'
	// YAxisTick prefixes every plot row.
	YAxisTick = '⊣'
	// XAxisTick fills the baseline row under the plot.
	XAxisTick = 'T'

	// DefaultMaxGridCells caps the number of cells RenderPlot will allocate.
	DefaultMaxGridCells = 1 << 22

	// maxPointY is the row RoundCoordinates saturates at.
	maxPointY = math.MaxInt32
)

// Point is a coordinate rounded onto the grid.
type Point struct {
	X, Y int
}

// GridRenderer renders a coordinate sequence. It never modifies the
// sequence it was given.
type GridRenderer struct {
	coords   []core.Coordinate
	maxCells int
}

// GridOption customises a GridRenderer.
type GridOption func(*GridRenderer)

// WithMaxGridCells overrides the plot size bound. Non-positive values keep
// the default.
func WithMaxGridCells(n int) GridOption {
	return func(r *GridRenderer) {
		if n > 0 {
			r.maxCells = n
		}
	}
}

// NewGridRenderer returns a renderer over coords, which must be ordered by
// increasing X.
func NewGridRenderer(coords []core.Coordinate, opts ...GridOption) *GridRenderer {
	r := &GridRenderer{
		coords:   coords,
		maxCells: DefaultMaxGridCells,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RoundCoordinates rounds every coordinate to the nearest grid cell, with
// halves rounded away from zero. Heights below the ground plane and NaN map
// to row zero; heights beyond math.MaxInt32 saturate there.
func RoundCoordinates(coords []core.Coordinate) []Point {
	points := make([]Point, 0, len(coords))
	for _, c := range coords {
		var row int
		switch y := math.Round(c.Y); {
		case y > maxPointY:
			row = maxPointY
		case y > 0:
			row = int(y)
		}
		points = append(points, Point{X: c.X, Y: row})
	}
	return points
}

// Bounds returns the largest X and Y over points. It fails with
// core.ErrDegenerateInput when points is empty.
func Bounds(points []Point) (xMax, yMax int, err error) {
	if len(points) == 0 {
		return 0, 0, fmt.Errorf("%w: no points to bound", core.ErrDegenerateInput)
	}
	xMax, yMax = points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.X > xMax {
			xMax = p.X
		}
		if p.Y > yMax {
			yMax = p.Y
		}
	}
	return xMax, yMax, nil
}

// RenderPlot rasterises the coordinates into a (yMax+1) × (xMax+1) grid with
// larger heights nearer the top. Every row is prefixed by YAxisTick and a
// baseline of XAxisTick follows the last row. The result starts with a blank
// line and ends with a newline, giving yMax+3 lines in total.
//
// When several coordinates land on the same cell the later one wins. An
// empty sequence renders as a single blank cell.
func (r *GridRenderer) RenderPlot() (string, error) {
	if err := r.checkExtent(); err != nil {
		return "", err
	}
	points := RoundCoordinates(r.coords)
	xMax, yMax, err := Bounds(points)
	if err != nil && !errors.Is(err, core.ErrDegenerateInput) {
		return "", err
	}
	if xMax < 0 {
		xMax = 0
	}

	width, height := xMax+1, yMax+1
	if width > r.maxCells/height {
		return "", fmt.Errorf("%w: plot of %d×%d cells exceeds limit of %d", core.ErrRangeOverflow, height, width, r.maxCells)
	}

	grid := make([][]rune, height)
	for row := range grid {
		grid[row] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range points {
		// Samples behind the launch point have no column.
		if p.X < 0 {
			continue
		}
		grid[yMax-p.Y][p.X] = Marker
	}

	rows := make([]string, 0, height+1)
	for _, cells := range grid {
		rows = append(rows, string(YAxisTick)+string(cells))
	}
	rows = append(rows, " "+strings.Repeat(string(XAxisTick), width))

	return "\n" + strings.Join(rows, "\n") + "\n", nil
}

// checkExtent rejects coordinates that cannot fit the cell bound on their
// own, before any of them is converted to a grid row.
func (r *GridRenderer) checkExtent() error {
	for _, c := range r.coords {
		y := math.Round(c.Y)
		if math.IsNaN(y) || y+1 > float64(r.maxCells) {
			return fmt.Errorf("%w: height %g m at x=%d does not fit a plot of %d cells", core.ErrRangeOverflow, c.Y, c.X, r.maxCells)
		}
		if c.X >= r.maxCells {
			return fmt.Errorf("%w: x=%d does not fit a plot of %d cells", core.ErrRangeOverflow, c.X, r.maxCells)
		}
	}
	return nil
}
