package api

import (
	"context"
	"net/http"

	"github.com/signalsfoundry/trajectory-plotter/core"
	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
	"github.com/signalsfoundry/trajectory-plotter/internal/observability"
	"github.com/signalsfoundry/trajectory-plotter/render"
)

// Routes served by TrajectoryService.
const (
	RouteTrajectory = "/v1/trajectory"
	RouteTable      = "/v1/trajectory/table"
	RoutePlot       = "/v1/trajectory/plot"
	RouteChart      = "/v1/trajectory/chart"
)

// Coordinate is the JSON form of core.Coordinate.
type Coordinate struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// TrajectoryResponse is returned by RouteTrajectory.
type TrajectoryResponse struct {
	Speed        float64      `json:"speed"`
	Height       float64      `json:"height"`
	Angle        int          `json:"angle"`
	Range        float64      `json:"range"`
	TimeOfFlight float64      `json:"time_of_flight"`
	ApexHeight   float64      `json:"apex_height"`
	Summary      string       `json:"summary"`
	Coordinates  []Coordinate `json:"coordinates"`
	Table        string       `json:"table"`
	Plot         string       `json:"plot"`
}

// TrajectoryService computes and renders trajectories over HTTP.
type TrajectoryService struct {
	log          logging.Logger
	metrics      *observability.TrajectoryCollector
	maxRange     float64
	maxGridCells int
}

// Option customises a TrajectoryService.
type Option func(*TrajectoryService)

// WithMetrics records computations, renders and requests on c.
func WithMetrics(c *observability.TrajectoryCollector) Option {
	return func(s *TrajectoryService) { s.metrics = c }
}

// WithMaxRange bounds the sampled range of every request, in metres.
func WithMaxRange(metres float64) Option {
	return func(s *TrajectoryService) { s.maxRange = metres }
}

// WithMaxGridCells bounds the size of every rendered plot.
func WithMaxGridCells(n int) Option {
	return func(s *TrajectoryService) { s.maxGridCells = n }
}

// NewTrajectoryService constructs a service using the core and render
// package bounds unless overridden.
func NewTrajectoryService(log logging.Logger, opts ...Option) *TrajectoryService {
	if log == nil {
		log = logging.Noop()
	}
	s := &TrajectoryService{
		log:          log,
		maxRange:     core.DefaultMaxRange,
		maxGridCells: render.DefaultMaxGridCells,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the service's routes wrapped in request-id, tracing and
// metrics middleware.
func (s *TrajectoryService) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, RouteTrajectory, s.handleTrajectory)
	s.handle(mux, RouteTable, s.handleTable)
	s.handle(mux, RoutePlot, s.handlePlot)
	s.handle(mux, RouteChart, s.handleChart)
	return RequestIDMiddleware(s.log, mux)
}

func (s *TrajectoryService) handle(mux *http.ServeMux, route string, fn http.HandlerFunc) {
	h := s.metrics.Middleware(route, TracingMiddleware(route, fn))
	mux.Handle("GET "+route, h)
}

func (s *TrajectoryService) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, coords, err := s.compute(ctx, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	renderer := s.renderer(coords)
	table := s.renderTable(ctx, renderer)
	plot, err := s.renderPlot(ctx, renderer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := TrajectoryResponse{
		Speed:        p.Speed(),
		Height:       p.Height(),
		Angle:        p.Angle(),
		Range:        p.Range(),
		TimeOfFlight: p.TimeOfFlight(),
		ApexHeight:   p.ApexHeight(),
		Summary:      p.String(),
		Coordinates:  make([]Coordinate, 0, len(coords)),
		Table:        table,
		Plot:         plot,
	}
	for _, c := range coords {
		resp.Coordinates = append(resp.Coordinates, Coordinate{X: c.X, Y: c.Y})
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "write response failed", logging.Err(err))
	}
}

func (s *TrajectoryService) handleTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, coords, err := s.compute(ctx, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := writeText(w, s.renderTable(ctx, s.renderer(coords))); err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "write response failed", logging.Err(err))
	}
}

func (s *TrajectoryService) handlePlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, coords, err := s.compute(ctx, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plot, err := s.renderPlot(ctx, s.renderer(coords))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := writeText(w, plot); err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "write response failed", logging.Err(err))
	}
}

func (s *TrajectoryService) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := ParseChartRows(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, coords, err := s.compute(ctx, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	_, span := observability.StartRenderSpan(ctx, "chart")
	chart, err := s.renderer(coords).RenderChart(rows)
	s.metrics.ObserveRender("chart", err)
	observability.EndSpan(span, err)

	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := writeText(w, chart+"\n"); err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "write response failed", logging.Err(err))
	}
}

func (s *TrajectoryService) compute(ctx context.Context, r *http.Request) (*core.Projectile, []core.Coordinate, error) {
	params, err := ParseLaunchParams(r.URL.Query())
	if err != nil {
		return nil, nil, err
	}

	_, span := observability.StartComputeSpan(ctx, params.Speed, params.Height, params.Angle)

	p, err := core.NewProjectile(params.Speed, params.Height, params.Angle, core.WithMaxRange(s.maxRange))
	if err != nil {
		s.metrics.ObserveComputation(0, err)
		observability.EndSpan(span, err)
		return nil, nil, err
	}

	coords, err := p.Coordinates()
	s.metrics.ObserveComputation(p.Range(), err)
	if err == nil {
		observability.AnnotateFlight(span, p.Range(), len(coords))
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, nil, err
	}
	return p, coords, nil
}

func (s *TrajectoryService) renderer(coords []core.Coordinate) *render.GridRenderer {
	return render.NewGridRenderer(coords, render.WithMaxGridCells(s.maxGridCells))
}

func (s *TrajectoryService) renderTable(ctx context.Context, r *render.GridRenderer) string {
	_, span := observability.StartRenderSpan(ctx, "table")
	defer span.End()

	table := r.RenderTable()
	s.metrics.ObserveRender("table", nil)
	return table
}

func (s *TrajectoryService) renderPlot(ctx context.Context, r *render.GridRenderer) (string, error) {
	_, span := observability.StartRenderSpan(ctx, "plot")
	plot, err := r.RenderPlot()
	s.metrics.ObserveRender("plot", err)
	observability.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	return plot, nil
}

func (s *TrajectoryService) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := StatusCode(err)
	log := logging.FromContext(ctx, s.log)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "trajectory request failed", logging.Int("status", status), logging.Err(err))
	} else {
		log.Info(ctx, "trajectory request rejected", logging.Int("status", status), logging.Err(err))
	}
	if werr := writeJSON(w, status, errorResponse{Error: err.Error()}); werr != nil {
		log.Warn(ctx, "write error response failed", logging.Err(werr))
	}
}
