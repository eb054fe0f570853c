// Package accuweather is the forecast provider backed by the AccuWeather
// HTTP API. Calls are never retried; a circuit breaker fails fast while the
// API keeps erroring.
package accuweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
	"github.com/m3rciful/routeweather/internal/forecast"
)

// DefaultBaseURL is the public AccuWeather data service.
const DefaultBaseURL = "https://dataservice.accuweather.com"

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnauthorized = errors.New("api key rejected")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoAPIKey     = errors.New("accuweather api key is not configured")
)

// Client talks to the AccuWeather API.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
	circuit  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLanguage sets the response language, e.g. "en-us".
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = strings.TrimSpace(lang) }
}

// WithMetrics records per-call counters and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// countsAsSuccess keeps rejected keys and other client errors out of the
// breaker's failure count so their cause reaches the caller.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, errUnauthorized) || errors.Is(err, errUnexpected)
}

// New creates a client for apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         "accuweather",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			IsSuccessful: countsAsSuccess,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindLocationKey returns the key of the first location matching city, or
// forecast.ErrLocationNotFound.
func (c *Client) FindLocationKey(ctx context.Context, city string) (string, error) {
	var found []location
	params := url.Values{"q": {city}}
	if err := c.get(ctx, "location.search", "/locations/v1/cities/search", params, &found); err != nil {
		return "", err
	}
	if len(found) == 0 || found[0].Key == "" {
		return "", forecast.ErrLocationNotFound
	}
	return found[0].Key, nil
}

// FetchOneDay returns today's record for the location key.
func (c *Client) FetchOneDay(ctx context.Context, key string) (forecast.Record, error) {
	var resp dailyResponse
	if err := c.get(ctx, "forecast.1day", "/forecasts/v1/daily/1day/"+url.PathEscape(key), detailParams(), &resp); err != nil {
		return forecast.Record{}, err
	}
	if len(resp.DailyForecasts) == 0 {
		return forecast.Record{}, fmt.Errorf("forecast.1day: empty DailyForecasts")
	}
	return toRecord(resp.DailyForecasts[0]), nil
}

// FetchMultiDay returns up to five daily records in provider order.
func (c *Client) FetchMultiDay(ctx context.Context, key string) ([]forecast.Record, error) {
	var resp dailyResponse
	if err := c.get(ctx, "forecast.5day", "/forecasts/v1/daily/5day/"+url.PathEscape(key), detailParams(), &resp); err != nil {
		return nil, err
	}
	out := make([]forecast.Record, 0, len(resp.DailyForecasts))
	for _, d := range resp.DailyForecasts {
		out = append(out, toRecord(d))
	}
	return out, nil
}

// CityAt reverse-geocodes a point to the localized city name.
func (c *Client) CityAt(ctx context.Context, lat, lon float64) (string, error) {
	q := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	var loc *location
	if err := c.get(ctx, "location.geoposition", "/locations/v1/cities/geoposition/search", url.Values{"q": {q}}, &loc); err != nil {
		return "", &forecast.ProviderUnavailableError{Op: "location.geoposition", Err: err}
	}
	if loc == nil || strings.TrimSpace(loc.LocalizedName) == "" {
		return "", &forecast.CityNotFoundError{City: q}
	}
	return strings.TrimSpace(loc.LocalizedName), nil
}

func detailParams() url.Values {
	return url.Values{"details": {"true"}, "metric": {"true"}}
}

func toRecord(d dailyForecast) forecast.Record {
	return forecast.Record{
		Date:                        d.Date,
		TemperatureC:                d.RealFeelTemperatureShade.Minimum.Value,
		HumidityPct:                 d.Day.RelativeHumidity.Average,
		WindSpeedKmh:                d.Day.Wind.Speed.Value,
		PrecipitationProbabilityPct: d.Day.PrecipitationProbability,
	}
}

// get performs one GET through the circuit breaker and decodes the JSON body
// into out. Returned errors never contain the request URL.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	if c.apiKey == "" {
		return errNoAPIKey
	}
	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ProviderRequest(op, time.Since(start), err)
		logger.Debug(ctx, "provider.accuweather", "request",
			slog.String("op", op),
			slog.Int("http_code", status),
			slog.String("status", statusOf(err)),
			slog.Duration("duration", logger.Took(start)),
		)
	}()

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("apikey", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, c.redact(err))
	}
	req.Header.Set("Accept", "application/json")

	_, err = c.circuit.Execute(func() (interface{}, error) {
		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, c.redact(doErr)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %d", errUnauthorized, resp.StatusCode)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
			return nil, fmt.Errorf("decode response: %w", decErr)
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", op, errCircuitOpen, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// redact strips the request URL, which carries the API key, from transport
// errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	if c.apiKey != "" && strings.Contains(err.Error(), c.apiKey) {
		return errors.New(strings.ReplaceAll(err.Error(), c.apiKey, "<redacted>"))
	}
	return err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	case errors.Is(err, errCircuitOpen):
		return "breaker_open"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "fail"
}
