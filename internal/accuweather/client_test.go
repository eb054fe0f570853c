package accuweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/routeweather/internal/forecast"
)

const testKey = "secret-key"

const fiveDayJSON = `{"DailyForecasts":[
 {"Date":"2024-06-10T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":14.2}},"Day":{"RelativeHumidity":{"Average":71},"Wind":{"Speed":{"Value":13}},"PrecipitationProbability":25}},
 {"Date":"2024-06-11T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":15}},"Day":{"RelativeHumidity":{"Average":60},"Wind":{"Speed":{"Value":9.3}},"PrecipitationProbability":0}},
 {"Date":"2024-06-12T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":16}},"Day":{"RelativeHumidity":{"Average":55},"Wind":{"Speed":{"Value":11}},"PrecipitationProbability":40}},
 {"Date":"2024-06-13T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":17}},"Day":{"RelativeHumidity":{"Average":50},"Wind":{"Speed":{"Value":7}},"PrecipitationProbability":5}},
 {"Date":"2024-06-14T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":18}},"Day":{"RelativeHumidity":{"Average":45},"Wind":{"Speed":{"Value":20}},"PrecipitationProbability":60}}
]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/locations/v1/cities/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.URL.Query().Get("apikey"))
		switch r.URL.Query().Get("q") {
		case "Moscow":
			_, _ = w.Write([]byte(`[{"Key":"294021","LocalizedName":"Moscow"},{"Key":"1","LocalizedName":"Moscow, ID"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	mux.HandleFunc("/forecasts/v1/daily/1day/294021", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("details"))
		assert.Equal(t, "true", r.URL.Query().Get("metric"))
		_, _ = w.Write([]byte(`{"DailyForecasts":[{"Date":"2024-06-10T07:00:00+03:00","RealFeelTemperatureShade":{"Minimum":{"Value":14.2}},"Day":{"RelativeHumidity":{"Average":71},"Wind":{"Speed":{"Value":13}},"PrecipitationProbability":25}}]}`))
	})
	mux.HandleFunc("/forecasts/v1/daily/5day/294021", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fiveDayJSON))
	})
	mux.HandleFunc("/locations/v1/cities/geoposition/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "55.75,37.61" {
			_, _ = w.Write([]byte(`{"Key":"294021","LocalizedName":"Moscow"}`))
			return
		}
		_, _ = w.Write([]byte(`null`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFindLocationKey(t *testing.T) {
	srv := newTestServer(t)
	c := New(testKey, WithBaseURL(srv.URL))

	key, err := c.FindLocationKey(context.Background(), "Moscow")
	require.NoError(t, err)
	assert.Equal(t, "294021", key)

	_, err = c.FindLocationKey(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, forecast.ErrLocationNotFound)
}

func TestFetchOneDay(t *testing.T) {
	srv := newTestServer(t)
	c := New(testKey, WithBaseURL(srv.URL))

	rec, err := c.FetchOneDay(context.Background(), "294021")
	require.NoError(t, err)
	assert.Equal(t, forecast.Record{
		Date:                        "2024-06-10T07:00:00+03:00",
		TemperatureC:                14.2,
		HumidityPct:                 71,
		WindSpeedKmh:                13,
		PrecipitationProbabilityPct: 25,
	}, rec)
}

func TestFetchMultiDay(t *testing.T) {
	srv := newTestServer(t)
	c := New(testKey, WithBaseURL(srv.URL))

	recs, err := c.FetchMultiDay(context.Background(), "294021")
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, 18.0, recs[4].TemperatureC)
	assert.Equal(t, 9.3, recs[1].WindSpeedKmh)
	assert.Equal(t, 60.0, recs[4].PrecipitationProbabilityPct)
}

func TestCityAt(t *testing.T) {
	srv := newTestServer(t)
	c := New(testKey, WithBaseURL(srv.URL))

	city, err := c.CityAt(context.Background(), 55.75, 37.61)
	require.NoError(t, err)
	assert.Equal(t, "Moscow", city)

	_, err = c.CityAt(context.Background(), 0, 0)
	var nf *forecast.CityNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolverOverClient(t *testing.T) {
	srv := newTestServer(t)
	r := forecast.NewResolver(New(testKey, WithBaseURL(srv.URL)))

	recs, err := r.Resolve(context.Background(), "Moscow", forecast.ThreeDay)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12"},
		[]string{recs[0].Date, recs[1].Date, recs[2].Date})
}

func TestStatusErrorsAreClassified(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusTooManyRequests, errRateLimited},
		{http.StatusServiceUnavailable, errServerError},
		{http.StatusUnauthorized, errUnauthorized},
		{http.StatusNotFound, errUnexpected},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		}))
		c := New(testKey, WithBaseURL(srv.URL))
		_, err := c.FindLocationKey(context.Background(), "Moscow")
		srv.Close()

		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.code)
		assert.NotContains(t, err.Error(), testKey)
	}
}

func TestTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(testKey, WithBaseURL(srv.URL))
	_, err := c.FetchOneDay(context.Background(), "294021")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKey)
	assert.NotContains(t, err.Error(), "apikey")
}

func TestBreakerOpensWithoutRetrying(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := New(testKey, WithBaseURL(srv.URL))

	for i := 0; i < 6; i++ {
		_, err := c.FindLocationKey(context.Background(), "Moscow")
		require.ErrorIs(t, err, errServerError)
	}
	assert.Equal(t, int32(6), hits.Load())

	_, err := c.FindLocationKey(context.Background(), "Moscow")
	require.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(6), hits.Load())
}

func TestRejectedKeyDoesNotOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	c := New(testKey, WithBaseURL(srv.URL))

	for i := 0; i < 8; i++ {
		_, err := c.FindLocationKey(context.Background(), "Moscow")
		require.ErrorIs(t, err, errUnauthorized)
		assert.NotErrorIs(t, err, errCircuitOpen)
	}
	assert.Equal(t, int32(8), hits.Load())
}

func TestMissingKey(t *testing.T) {
	_, err := New("  ").FindLocationKey(context.Background(), "Moscow")
	assert.True(t, errors.Is(err, errNoAPIKey))
}
