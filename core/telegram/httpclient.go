package telegram

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/telegram/netutil"
)

// Bot API calls are small; the long poll itself is bounded by the client
// timeout, which stays above the longest poll timeout we configure.
const (
	apiClientTimeout = 60 * time.Second
	apiDialTimeout   = 5 * time.Second
	apiRetries       = 3
	apiRetryBase     = 500 * time.Millisecond
)

// BuildHTTPClient returns the client used for Bot API calls. Requests that
// fail before reaching the API are repeated with doubling delays.
func BuildHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: apiDialTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = apiDialTimeout
	transport.MaxIdleConnsPerHost = 10
	return &http.Client{
		Timeout:   apiClientTimeout,
		Transport: &retryTransport{next: transport, retries: apiRetries, base: apiRetryBase},
	}
}

var errBodyNotReplayable = errors.New("telegram: request body cannot be replayed")

type retryTransport struct {
	next    http.RoundTripper
	retries int
	base    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	resp, err := t.next.RoundTrip(req)
	delay := t.base
	for attempt := 1; err != nil && attempt <= t.retries && netutil.ShouldRetry(err); attempt++ {
		retry, rewindErr := rewind(req)
		if rewindErr != nil {
			return nil, err
		}
		logger.Debug(ctx, "tg", "http.retry",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", netutil.SanitizeError(err)),
			slog.String("err_kind", netutil.ClassifyError(err)),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		resp, err = t.next.RoundTrip(retry)
	}
	return resp, err
}

// rewind clones req with a fresh body. Requests whose body cannot be
// replayed are not retried.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
