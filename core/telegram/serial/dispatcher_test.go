package serial

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/routeweather/core/metrics"
)

func TestSubmitKeepsPerKeyOrder(t *testing.T) {
	d := New(Options{Workers: 4, QueueSize: 8})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			require.NoError(t, d.Submit(context.Background(), key, func(context.Context) {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			}))
		}
	}
	d.Close()

	for _, key := range []int64{1, 2, 3} {
		require.Len(t, got[key], 50)
		for i, v := range got[key] {
			assert.Equal(t, i, v, "key %d", key)
		}
	}
}

func TestDifferentKeysRunConcurrently(t *testing.T) {
	d := New(Options{Workers: 2, QueueSize: 1})
	defer d.Close()

	release := make(chan struct{})
	done := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), 0, func(context.Context) {
		<-release
	}))
	require.NoError(t, d.Submit(context.Background(), 1, func(context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job for another key was blocked")
	}
	close(release)
}

func TestSubmitAfterClose(t *testing.T) {
	d := New(Options{Workers: 1})
	d.Close()
	d.Close()
	err := d.Submit(context.Background(), 1, func(context.Context) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmitHonoursContextWhenFull(t *testing.T) {
	d := New(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), 1, func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, d.Submit(context.Background(), 1, func(context.Context) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := d.Submit(ctx, 1, func(context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	d.Close()
}

func TestPanicDoesNotStopWorker(t *testing.T) {
	m := metrics.New()
	d := New(Options{Workers: 1, QueueSize: 4, Metrics: m})

	ran := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), 7, func(context.Context) { panic("boom") }))
	require.NoError(t, d.Submit(context.Background(), 7, func(context.Context) { close(ran) }))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after panic")
	}
	d.Close()
	assert.Equal(t, uint64(1), d.Panics())
	assert.Zero(t, queueDepth(t, m))
}

func queueDepth(t *testing.T, m *metrics.Metrics) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "routeweather_dispatch_queue_depth" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("queue depth gauge not registered")
	return 0
}
