package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/trajectory-plotter/core"
	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
	"github.com/signalsfoundry/trajectory-plotter/render"
)

// Exit codes.
const (
	exitOK       = 0
	exitOverflow = 1
	exitUsage    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, logging.NewFromEnv(os.Stderr)))
}

func run(args []string, stdout io.Writer, log logging.Logger) int {
	ctx := context.Background()

	fs := flag.NewFlagSet("trajectory", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	speed := fs.Float64("speed", 10, "launch speed in m/s (> 0)")
	height := fs.Float64("height", 0, "launch height in metres (>= 0)")
	angle := fs.Float64("angle", 45, "launch angle in degrees [0, 90]")
	showTable := fs.Bool("table", true, "print the coordinate table")
	showPlot := fs.Bool("plot", true, "print the character plot")
	chartRows := fs.Int("chart", 0, "also print a line chart of the height profile with this many rows (0 disables)")
	maxRange := fs.Float64("max-range", core.DefaultMaxRange, "largest range in metres that will be sampled")
	maxCells := fs.Int("max-grid-cells", render.DefaultMaxGridCells, "largest plot size in cells")
	if err := fs.Parse(args); err != nil {
		log.Error(ctx, "invalid arguments", logging.Err(err))
		return exitUsage
	}

	p, err := core.NewProjectile(*speed, *height, *angle, core.WithMaxRange(*maxRange))
	if err != nil {
		log.Error(ctx, "invalid launch parameters", logging.Err(err))
		return exitUsage
	}
	log.Debug(ctx, "computing trajectory",
		logging.Float("speed", p.Speed()),
		logging.Float("height", p.Height()),
		logging.Int("angle", p.Angle()),
	)

	coords, err := p.Coordinates()
	if err != nil {
		log.Error(ctx, "compute coordinates", logging.Err(err))
		return exitCode(err)
	}
	renderer := render.NewGridRenderer(coords, render.WithMaxGridCells(*maxCells))

	// Everything that can fail renders before anything is written.
	var plot, chart string
	if *showPlot {
		if plot, err = renderer.RenderPlot(); err != nil {
			log.Error(ctx, "render plot", logging.Err(err))
			return exitCode(err)
		}
	}
	if *chartRows > 0 {
		if chart, err = renderer.RenderChart(*chartRows); err != nil {
			log.Error(ctx, "render chart", logging.Err(err))
			return exitCode(err)
		}
	}

	fmt.Fprintln(stdout, p)
	if *showTable {
		fmt.Fprint(stdout, renderer.RenderTable())
	}
	if *showPlot {
		fmt.Fprint(stdout, plot)
	}
	if *chartRows > 0 {
		fmt.Fprintln(stdout, chart)
	}
	return exitOK
}

func exitCode(err error) int {
	if errors.Is(err, core.ErrRangeOverflow) {
		return exitOverflow
	}
	return exitUsage
}
