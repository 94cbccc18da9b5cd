package render

import (
	"fmt"
	"strings"
)

// Column widths for RenderTable. Values wider than a column widen it.
const (
	xColumnWidth = 3
	yColumnWidth = 7
)

// RenderTable lists the coordinates one per line under an "x y" header, with
// x right-aligned in a 3-character column and y right-aligned to two decimals
// in a 7-character column. Every line, including the last, ends in a newline.
func (r *GridRenderer) RenderTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%*s %*s\n", xColumnWidth, "x", yColumnWidth, "y")
	for _, c := range r.coords {
		fmt.Fprintf(&b, "%*d %*.2f\n", xColumnWidth, c.X, yColumnWidth, c.Y)
	}
	return b.String()
}
