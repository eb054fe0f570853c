package forecast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type stubProvider struct {
	keys      map[string]string
	oneDay    map[string]Record
	multi     map[string][]Record
	findErr   error
	fetchErr  error
	findCalls int
	lastCtx   context.Context
}

func (p *stubProvider) FindLocationKey(ctx context.Context, city string) (string, error) {
	p.findCalls++
	p.lastCtx = ctx
	if p.findErr != nil {
		return "", p.findErr
	}
	key, ok := p.keys[city]
	if !ok {
		return "", ErrLocationNotFound
	}
	return key, nil
}

func (p *stubProvider) FetchOneDay(_ context.Context, key string) (Record, error) {
	if p.fetchErr != nil {
		return Record{}, p.fetchErr
	}
	return p.oneDay[key], nil
}

func (p *stubProvider) FetchMultiDay(_ context.Context, key string) ([]Record, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.multi[key], nil
}

type mapKeyCache struct {
	data      map[string]string
	lookupErr error
	stores    int
}

func (c *mapKeyCache) Lookup(_ context.Context, city string) (string, bool, error) {
	if c.lookupErr != nil {
		return "", false, c.lookupErr
	}
	k, ok := c.data[city]
	return k, ok, nil
}

func (c *mapKeyCache) Store(_ context.Context, city, key string) error {
	c.stores++
	c.data[city] = key
	return nil
}

func fiveDays(base float64) []Record {
	out := make([]Record, 5)
	for i := range out {
		out[i] = Record{
			Date:                        fmt.Sprintf("2024-05-0%dT07:00:00+03:00", i+1),
			TemperatureC:                base + float64(i),
			HumidityPct:                 60,
			WindSpeedKmh:                10,
			PrecipitationProbabilityPct: 20,
		}
	}
	return out
}

func newStub() *stubProvider {
	return &stubProvider{
		keys:   map[string]string{"Moscow": "294021"},
		oneDay: map[string]Record{"294021": {Date: "2024-05-01T07:00:00+03:00", TemperatureC: 12.5, HumidityPct: 70, WindSpeedKmh: 14.8, PrecipitationProbabilityPct: 40}},
		multi:  map[string][]Record{"294021": fiveDays(10)},
	}
}

func TestResolveLengthPerHorizon(t *testing.T) {
	r := NewResolver(newStub())
	for _, h := range Horizons {
		recs, err := r.Resolve(context.Background(), "Moscow", h)
		require.NoError(t, err)
		require.Len(t, recs, h.Days())
		for i := 1; i < len(recs); i++ {
			assert.Less(t, recs[i-1].Date, recs[i].Date, "dates must be distinct and ascending")
		}
		for _, rec := range recs {
			assert.Len(t, rec.Date, 10)
		}
	}
}

func TestResolveThreeDayKeepsFirstRecordsInOrder(t *testing.T) {
	r := NewResolver(newStub())
	recs, err := r.Resolve(context.Background(), " Moscow ", ThreeDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, []string{recs[0].Date, recs[1].Date, recs[2].Date})
	assert.Equal(t, 10.0, recs[0].TemperatureC)
	assert.Equal(t, 12.0, recs[2].TemperatureC)
}

func TestResolveOneDayNormalizesDate(t *testing.T) {
	r := NewResolver(newStub())
	recs, err := r.Resolve(context.Background(), "Moscow", OneDay)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", recs[0].Date)
	assert.Equal(t, 12.5, recs[0].TemperatureC)
}

func TestResolveUnknownCity(t *testing.T) {
	r := NewResolver(newStub())
	_, err := r.Resolve(context.Background(), "Atlantis", OneDay)
	var nf *CityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Atlantis", nf.City)
	assert.Equal(t, "CITY_NOT_FOUND", nf.Code())
}

func TestResolveTransportFailureIsProviderUnavailable(t *testing.T) {
	boom := errors.New("connection reset")
	p := newStub()
	p.fetchErr = boom
	r := NewResolver(p)

	_, err := r.Resolve(context.Background(), "Moscow", FiveDay)
	var pu *ProviderUnavailableError
	require.ErrorAs(t, err, &pu)
	assert.Equal(t, "forecast.5day", pu.Op)
	assert.ErrorIs(t, err, boom)

	p = newStub()
	p.findErr = boom
	r = NewResolver(p)
	_, err = r.Resolve(context.Background(), "Moscow", OneDay)
	require.ErrorAs(t, err, &pu)
	assert.Equal(t, "location.search", pu.Op)
	assert.Equal(t, 1, p.findCalls, "failed lookups are not retried")
}

func TestResolveShortProviderResponse(t *testing.T) {
	p := newStub()
	p.multi["294021"] = fiveDays(0)[:2]
	r := NewResolver(p)
	_, err := r.Resolve(context.Background(), "Moscow", ThreeDay)
	var pu *ProviderUnavailableError
	require.ErrorAs(t, err, &pu)
}

func TestResolveRejectsUnsupportedHorizon(t *testing.T) {
	r := NewResolver(newStub())
	_, err := r.Resolve(context.Background(), "Moscow", Horizon(2))
	var uh *UnsupportedHorizonError
	require.ErrorAs(t, err, &uh)
}

func TestResolveUsesKeyCache(t *testing.T) {
	p := newStub()
	cache := &mapKeyCache{data: map[string]string{}}
	r := NewResolver(p, WithKeyCache(cache))

	_, err := r.Resolve(context.Background(), "Moscow", OneDay)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "Moscow", OneDay)
	require.NoError(t, err)

	assert.Equal(t, 1, p.findCalls)
	assert.Equal(t, 1, cache.stores)
	assert.Equal(t, "294021", cache.data["Moscow"])
}

func TestResolveIgnoresBrokenKeyCache(t *testing.T) {
	p := newStub()
	cache := &mapKeyCache{data: map[string]string{}, lookupErr: errors.New("redis down")}
	r := NewResolver(p, WithKeyCache(cache))

	recs, err := r.Resolve(context.Background(), "Moscow", OneDay)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, p.findCalls)
}

func TestResolveAppliesCallTimeout(t *testing.T) {
	p := newStub()
	r := NewResolver(p, WithCallTimeout(time.Second))
	_, err := r.Resolve(context.Background(), "Moscow", OneDay)
	require.NoError(t, err)
	deadline, ok := p.lastCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestResolveRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	r := NewResolver(newStub(), WithTracer(tp.Tracer("test")))

	_, err := r.Resolve(context.Background(), "Atlantis", OneDay)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "forecast.resolve", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-05-01", normalizeDate("2024-05-01T07:00:00+03:00"))
	assert.Equal(t, "2024-05-01", normalizeDate("2024-05-01"))
	assert.Equal(t, "2024-05-01", normalizeDate("2024-05-01 07:00"))
	assert.Equal(t, "bad", normalizeDate("bad"))
}
