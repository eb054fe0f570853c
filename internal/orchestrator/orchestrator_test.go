package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/m3rciful/routeweather/internal/advisory"
	"github.com/m3rciful/routeweather/internal/forecast"
	"github.com/m3rciful/routeweather/internal/session"
)

// frozenResolver serves fixed data per city.
type frozenResolver struct {
	data  map[string][]forecast.Record
	fail  map[string]error
	calls []string
}

func (r *frozenResolver) Resolve(_ context.Context, city string, h forecast.Horizon) ([]forecast.Record, error) {
	r.calls = append(r.calls, city)
	if err := r.fail[city]; err != nil {
		return nil, err
	}
	recs := r.data[city]
	return append([]forecast.Record(nil), recs[:h.Days()]...), nil
}

func days(base float64) []forecast.Record {
	out := make([]forecast.Record, 5)
	for i := range out {
		out[i] = forecast.Record{
			Date:                        fmt.Sprintf("2024-06-%02d", 10+i),
			TemperatureC:                base + float64(i),
			HumidityPct:                 60,
			WindSpeedKmh:                15,
			PrecipitationProbabilityPct: 10,
		}
	}
	return out
}

type recordingRenderer struct {
	barCities []string
	barTemps  []float64
	lines     []forecast.Series
	lineH     forecast.Horizon
}

func (r *recordingRenderer) RenderBar(_ context.Context, cities []string, temps []float64) (string, error) {
	r.barCities, r.barTemps = cities, temps
	return "/tmp/bar.png", nil
}

func (r *recordingRenderer) RenderLines(_ context.Context, h forecast.Horizon, series []forecast.Series) (string, error) {
	r.lineH, r.lines = h, series
	return "/tmp/lines.png", nil
}

type fixture struct {
	orch     *Orchestrator
	sessions *session.Store
	cache    *forecast.Cache
	resolver *frozenResolver
	renderer *recordingRenderer
	spans    *tracetest.SpanRecorder
}

func newFixture() *fixture {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	f := &fixture{
		sessions: session.NewStore(),
		cache:    forecast.NewCache(),
		resolver: &frozenResolver{
			data: map[string][]forecast.Record{
				"Moscow": days(18),
				"Paris":  days(22.5),
				"Berlin": days(-3),
			},
			fail: map[string]error{},
		},
		renderer: &recordingRenderer{},
		spans:    rec,
	}
	f.orch = New(f.sessions, f.cache, f.resolver, f.renderer, WithTracer(tp.Tracer("test")))
	return f
}

func (f *fixture) route(t *testing.T, user int64, cities ...string) {
	t.Helper()
	f.sessions.Start(user)
	for _, c := range cities {
		require.NoError(t, f.sessions.AppendCity(user, c))
	}
	require.NoError(t, f.sessions.Transition(user, session.StateIdle))
}

func TestRunOneDayMoscowParis(t *testing.T) {
	f := newFixture()
	f.route(t, 1, "Moscow", "Paris")

	report, err := f.orch.Run(context.Background(), 1, forecast.OneDay)
	require.NoError(t, err)

	want := "City: Moscow\nDate: 2024-06-10\nTemperature: 18°C\nHumidity: 60%\nWind speed: 15 km/h\n" +
		"Precipitation probability: 10%\nAdvisory: " + advisory.Evaluate(18, 60, 15, 10) +
		"\n\n" +
		"City: Paris\nDate: 2024-06-10\nTemperature: 22.5°C\nHumidity: 60%\nWind speed: 15 km/h\n" +
		"Precipitation probability: 10%\nAdvisory: " + advisory.Evaluate(22.5, 60, 15, 10)
	assert.Equal(t, want, report)

	snap, ok := f.cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, []string{"Moscow", "Paris"}, snap.Cities())
	moscow, ok := snap.Scalar("Moscow")
	require.True(t, ok)
	assert.Equal(t, 18.0, moscow)
	paris, _ := snap.Scalar("Paris")
	assert.Equal(t, 22.5, paris)

	sess, _ := f.sessions.Get(1)
	assert.Empty(t, sess.Route)
}

func TestRunFiveDayKeepsRouteOrder(t *testing.T) {
	f := newFixture()
	f.route(t, 1, "Moscow", "Paris", "Berlin")

	report, err := f.orch.Run(context.Background(), 1, forecast.FiveDay)
	require.NoError(t, err)

	blocks := strings.Split(report, "\n\n")
	require.Len(t, blocks, 15)
	for i, city := range []string{"Moscow", "Paris", "Berlin"} {
		for d := 0; d < 5; d++ {
			block := blocks[i*5+d]
			assert.True(t, strings.HasPrefix(block, "City: "+city+"\n"), block)
			assert.Contains(t, block, fmt.Sprintf("Date: 2024-06-%02d", 10+d))
		}
	}
	assert.Equal(t, []string{"Moscow", "Paris", "Berlin"}, f.resolver.calls)

	snap, ok := f.cache.Get(1)
	require.True(t, ok)
	require.Len(t, snap.Series, 3)
	for _, s := range snap.Series {
		assert.Len(t, s.Points, 5)
	}
	assert.Equal(t, forecast.Point{Date: "2024-06-14", TemperatureC: 1}, snap.Series[2].Points[4])
}

func TestRunIsDeterministic(t *testing.T) {
	f := newFixture()
	f.route(t, 1, "Paris", "Moscow")
	first, err := f.orch.Run(context.Background(), 1, forecast.ThreeDay)
	require.NoError(t, err)

	f.route(t, 1, "Paris", "Moscow")
	second, err := f.orch.Run(context.Background(), 1, forecast.ThreeDay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunEmptyRouteIsNoop(t *testing.T) {
	f := newFixture()
	f.cache.Put(1, forecast.Snapshot{Horizon: forecast.OneDay, Series: []forecast.Series{{City: "Old", Points: []forecast.Point{{TemperatureC: 1}}}}})

	report, err := f.orch.Run(context.Background(), 1, forecast.OneDay)
	require.NoError(t, err)
	assert.Empty(t, report)
	_, ok := f.cache.Get(1)
	assert.True(t, ok)
	assert.Empty(t, f.spans.Ended())
}

func TestRunFailureAbortsAndConsumesRoute(t *testing.T) {
	f := newFixture()
	f.resolver.fail["Atlantis"] = &forecast.CityNotFoundError{City: "Atlantis"}
	f.cache.Put(1, forecast.Snapshot{Horizon: forecast.OneDay, Series: []forecast.Series{{City: "Old", Points: []forecast.Point{{TemperatureC: 1}}}}})
	f.route(t, 1, "Moscow", "Atlantis", "Paris")

	report, err := f.orch.Run(context.Background(), 1, forecast.OneDay)
	var nf *forecast.CityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Atlantis", nf.City)
	assert.Empty(t, report)
	assert.Equal(t, []string{"Moscow", "Atlantis"}, f.resolver.calls)

	_, ok := f.cache.Get(1)
	assert.False(t, ok)
	sess, _ := f.sessions.Get(1)
	assert.Empty(t, sess.Route)
}

func TestRunRecordsSpan(t *testing.T) {
	f := newFixture()
	f.resolver.fail["Paris"] = &forecast.ProviderUnavailableError{Op: "forecast.1day", Err: errors.New("status 503")}
	f.route(t, 1, "Paris")

	_, err := f.orch.Run(context.Background(), 1, forecast.OneDay)
	require.Error(t, err)

	spans := f.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "forecast.run", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
}

func TestRenderChartNeedsMatchingRun(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.orch.RenderChart(ctx, 1, forecast.OneDay)
	var ide *forecast.InsufficientDataError
	require.ErrorAs(t, err, &ide)

	f.route(t, 1, "Moscow")
	_, err = f.orch.Run(ctx, 1, forecast.FiveDay)
	require.NoError(t, err)

	_, err = f.orch.RenderChart(ctx, 1, forecast.OneDay)
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, forecast.OneDay, ide.Horizon)
}

func TestRenderChartOneDayBars(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.route(t, 1, "Moscow", "Paris")
	_, err := f.orch.Run(ctx, 1, forecast.OneDay)
	require.NoError(t, err)

	path, err := f.orch.RenderChart(ctx, 1, forecast.OneDay)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bar.png", path)
	assert.Equal(t, []string{"Moscow", "Paris"}, f.renderer.barCities)
	assert.Equal(t, []float64{18, 22.5}, f.renderer.barTemps)
}

func TestRenderChartMultiDayLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.route(t, 1, "Moscow", "Berlin")
	_, err := f.orch.Run(ctx, 1, forecast.ThreeDay)
	require.NoError(t, err)

	path, err := f.orch.RenderChart(ctx, 1, forecast.ThreeDay)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lines.png", path)
	assert.Equal(t, forecast.ThreeDay, f.renderer.lineH)
	require.Len(t, f.renderer.lines, 2)
	assert.Equal(t, "Berlin", f.renderer.lines[1].City)
	assert.Equal(t, []forecast.Point{
		{Date: "2024-06-10", TemperatureC: -3},
		{Date: "2024-06-11", TemperatureC: -2},
		{Date: "2024-06-12", TemperatureC: -1},
	}, f.renderer.lines[1].Points)
}

func TestDeclineChart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.route(t, 1, "Moscow")
	_, err := f.orch.Run(ctx, 1, forecast.OneDay)
	require.NoError(t, err)

	f.orch.DeclineChart(1)
	_, ok := f.cache.Get(1)
	assert.False(t, ok)

	f.sessions.Start(2)
	require.NoError(t, f.sessions.AppendCity(2, "Paris"))
	f.orch.DeclineChart(2)
	sess, _ := f.sessions.Get(2)
	assert.Equal(t, []string{"Paris"}, sess.Route)
}
