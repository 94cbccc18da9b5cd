package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/trajectory-plotter/core"
)

// Outcome labels shared by the computation and render counters.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeOverflow   = "overflow"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"
)

// TrajectoryCollector bundles Prometheus metrics for trajectory computation,
// rendering and the HTTP surface that serves them.
type TrajectoryCollector struct {
	gatherer prometheus.Gatherer

	Computations *prometheus.CounterVec
	RangeMeters  prometheus.Histogram
	Renders      *prometheus.CounterVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewTrajectoryCollector registers trajectory metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTrajectoryCollector(reg prometheus.Registerer) (*TrajectoryCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	computations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_computations_total",
		Help: "Coordinate sequences computed, labeled by outcome.",
	}, []string{"outcome"}), "trajectory_computations_total")
	if err != nil {
		return nil, err
	}

	rangeMeters, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trajectory_range_meters",
		Help:    "Horizontal range of successfully computed trajectories in metres.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}), "trajectory_range_meters")
	if err != nil {
		return nil, err
	}

	renders, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_renders_total",
		Help: "Text artifacts rendered, labeled by kind (table, plot, chart) and outcome.",
	}, []string{"kind", "outcome"}), "trajectory_renders_total")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_http_requests_total",
		Help: "Handled HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}), "trajectory_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trajectory_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"}), "trajectory_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &TrajectoryCollector{
		gatherer:      gatherer,
		Computations:  computations,
		RangeMeters:   rangeMeters,
		Renders:       renders,
		HTTPRequests:  requests,
		HTTPDurations: durations,
	}, nil
}

// Outcome maps an error from the core or render packages onto a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, core.ErrInvalidSpeed),
		errors.Is(err, core.ErrInvalidHeight),
		errors.Is(err, core.ErrInvalidAngle):
		return OutcomeInvalid
	case errors.Is(err, core.ErrRangeOverflow):
		return OutcomeOverflow
	case errors.Is(err, core.ErrDegenerateInput):
		return OutcomeDegenerate
	default:
		return OutcomeError
	}
}

// ObserveComputation records one coordinate computation. rangeMeters is only
// observed when err is nil.
func (c *TrajectoryCollector) ObserveComputation(rangeMeters float64, err error) {
	if c == nil {
		return
	}
	c.Computations.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		c.RangeMeters.Observe(rangeMeters)
	}
}

// ObserveRender records one table or plot render.
func (c *TrajectoryCollector) ObserveRender(kind string, err error) {
	if c == nil {
		return
	}
	c.Renders.WithLabelValues(kind, Outcome(err)).Inc()
}

// Middleware records request counts and durations for next under route.
func (c *TrajectoryCollector) Middleware(route string, next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		c.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc()
		c.HTTPDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TrajectoryCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StatusRecorder captures the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w, assuming 200 until WriteHeader says otherwise.
// Wrapping an existing StatusRecorder returns it unchanged.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if rec, ok := w.(*StatusRecorder); ok {
		return rec
	}
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// register adds collector to reg, reusing an already registered collector of
// the same type under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
