package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
	"github.com/signalsfoundry/trajectory-plotter/internal/observability"
	"github.com/signalsfoundry/trajectory-plotter/render"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewTrajectoryService(logging.Noop(), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// serve runs a request synchronously so that metrics and spans recorded by
// the handler chain are complete on return.
func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestTrajectoryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv.URL+RouteTrajectory+"?speed=10&height=0&angle=45")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}

	var body TrajectoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if math.Abs(body.Range-10.19) > 0.01 {
		t.Fatalf("range = %v, want ≈ 10.19", body.Range)
	}
	if len(body.Coordinates) != 11 {
		t.Fatalf("len(coordinates) = %d, want 11", len(body.Coordinates))
	}
	if body.Angle != 45 || body.Speed != 10 || body.Height != 0 {
		t.Fatalf("unexpected launch parameters in response: %+v", body)
	}
	if got := strings.Count(body.Table, "\n"); got != 12 {
		t.Fatalf("table has %d lines, want 12", got)
	}
	if !strings.Contains(body.Plot, string(render.Marker)) {
		t.Fatalf("plot has no markers:\n%s", body.Plot)
	}
	if !strings.Contains(body.Summary, "displacement: 10.2 m") {
		t.Fatalf("summary = %q", body.Summary)
	}
}

func TestTextEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, route := range []string{RouteTable, RoutePlot, RouteChart} {
		resp := get(t, srv.URL+route+"?speed=10&height=3&angle=45")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", route, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("%s Content-Type = %q, want text/plain", route, ct)
		}
	}
}

func TestTrajectoryEndpointErrors(t *testing.T) {
	cases := []struct {
		name  string
		route string
		query string
		want  int
	}{
		{"missing speed", RouteTrajectory, "angle=45", http.StatusBadRequest},
		{"malformed angle", RouteTrajectory, "speed=10&angle=steep", http.StatusBadRequest},
		{"zero speed", RouteTrajectory, "speed=0&angle=45", http.StatusBadRequest},
		{"negative height", RouteTable, "speed=10&height=-1&angle=45", http.StatusBadRequest},
		{"angle above 90", RoutePlot, "speed=10&angle=120", http.StatusBadRequest},
		{"range overflow", RouteTrajectory, "speed=1e9&angle=1", http.StatusUnprocessableEntity},
		{"plot height overflow", RoutePlot, "speed=4e-10&height=1e20&angle=0", http.StatusUnprocessableEntity},
		{"bad chart rows", RouteChart, "speed=10&angle=45&rows=-2", http.StatusBadRequest},
		{"too many chart rows", RouteChart, "speed=10&angle=45&rows=1000", http.StatusUnprocessableEntity},
		{"empty chart", RouteChart, "speed=10&angle=0", http.StatusUnprocessableEntity},
	}

	srv := newTestServer(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv.URL+tc.route+"?"+tc.query)
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error == "" {
				t.Fatalf("expected an error message")
			}
		})
	}
}

func TestPlotOverflow(t *testing.T) {
	srv := newTestServer(t, WithMaxGridCells(10))

	resp := get(t, srv.URL+RoutePlot+"?speed=10&angle=45")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	// The table is not bounded by the grid size.
	resp = get(t, srv.URL+RouteTable+"?speed=10&angle=45")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("table status = %d, want 200", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+RouteTrajectory+"?speed=10&angle=45", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+RoutePlot+"?speed=5&angle=30", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set(requestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "req-123" {
		t.Fatalf("%s = %q, want req-123", requestIDHeader, got)
	}

	resp = get(t, srv.URL+RoutePlot+"?speed=5&angle=30")
	if got := resp.Header.Get(requestIDHeader); got == "" {
		t.Fatalf("expected a generated %s", requestIDHeader)
	}
}

func TestServiceRecordsMetrics(t *testing.T) {
	collector, err := observability.NewTrajectoryCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewTrajectoryCollector: %v", err)
	}
	h := NewTrajectoryService(logging.Noop(), WithMetrics(collector)).Handler()

	serve(h, RouteTrajectory+"?speed=10&angle=45")
	serve(h, RouteTrajectory+"?speed=1e9&angle=1")

	if got := testutil.ToFloat64(collector.Computations.WithLabelValues(observability.OutcomeOK)); got != 1 {
		t.Fatalf("ok computations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Computations.WithLabelValues(observability.OutcomeOverflow)); got != 1 {
		t.Fatalf("overflow computations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Renders.WithLabelValues("plot", observability.OutcomeOK)); got != 1 {
		t.Fatalf("plot renders = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues(RouteTrajectory, "422")); got != 1 {
		t.Fatalf("422 requests = %v, want 1", got)
	}
}

func TestServiceEmitsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	serve(NewTrajectoryService(logging.Noop()).Handler(), RouteTrajectory+"?speed=10&angle=45")

	names := map[string]int{}
	for _, span := range sr.Ended() {
		names[span.Name()]++
	}
	if names["GET "+RouteTrajectory] != 1 {
		t.Fatalf("missing server span, got %v", names)
	}
	if names["trajectory.compute"] != 1 || names["trajectory.render"] != 2 {
		t.Fatalf("unexpected child spans: %v", names)
	}
}
