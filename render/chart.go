package render

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/signalsfoundry/trajectory-plotter/core"
)

// Chart size limits. Longer flights are resampled down to MaxChartWidth columns.
const (
	DefaultChartRows = 10
	MaxChartRows     = 100
	MaxChartWidth    = 120
)

// RenderChart draws the height profile as a line chart with the given number
// of rows. Unlike RenderPlot its size does not grow with the range, so it
// still works for flights whose grid would exceed the cell bound.
//
// An empty sequence fails with core.ErrDegenerateInput.
func (r *GridRenderer) RenderChart(rows int) (string, error) {
	if len(r.coords) == 0 {
		return "", fmt.Errorf("%w: no coordinates to chart", core.ErrDegenerateInput)
	}
	if rows <= 0 {
		rows = DefaultChartRows
	}
	if rows > MaxChartRows {
		return "", fmt.Errorf("%w: chart of %d rows exceeds limit of %d", core.ErrRangeOverflow, rows, MaxChartRows)
	}

	heights := make([]float64, len(r.coords))
	for i, c := range r.coords {
		heights[i] = c.Y
	}
	width := len(heights)
	if width > MaxChartWidth {
		width = MaxChartWidth
	}

	return asciigraph.Plot(heights,
		asciigraph.Height(rows),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("height (m) over %d m", len(heights))),
	), nil
}
