// Package serial runs update handlers on a fixed pool of FIFO workers.
// Jobs sharing a key always land on the same worker, so they execute one at
// a time in submission order, while different keys proceed concurrently.
package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
)

// ErrClosed is returned when a job is submitted after Close.
var ErrClosed = errors.New("serial dispatcher: closed")

// Options sizes the dispatcher.
type Options struct {
	Workers   int
	QueueSize int
	Metrics   *metrics.Metrics
}

type job struct {
	ctx      context.Context
	key      int64
	enqueued time.Time
	run      func(context.Context)
}

// Dispatcher shards jobs by key onto per-worker queues.
type Dispatcher struct {
	opts   Options
	queues []chan job

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	panics atomic.Uint64
}

// New starts the workers. Zero options fall back to 8 workers with 64 slots each.
func New(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	d := &Dispatcher{
		opts:   opts,
		queues: make([]chan job, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, opts.QueueSize)
		go d.worker(d.queues[i])
	}
	return d
}

// Submit queues run for key. It blocks while the key's worker queue is full
// and gives up when ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, key int64, run func(context.Context)) error {
	if run == nil {
		return fmt.Errorf("serial dispatcher: nil job")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	j := job{ctx: ctx, key: key, enqueued: time.Now(), run: run}
	select {
	case d.queues[d.shard(key)] <- j:
		d.opts.Metrics.QueueDelta(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Panics returns how many jobs panicked.
func (d *Dispatcher) Panics() uint64 {
	return d.panics.Load()
}

func (d *Dispatcher) shard(key int64) int {
	return int(uint64(key) % uint64(len(d.queues)))
}

func (d *Dispatcher) worker(q <-chan job) {
	defer d.wg.Done()
	for j := range q {
		d.opts.Metrics.QueueDelta(-1)
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			logger.Error(j.ctx, "tg.serial", "job.panic",
				slog.Int64("user_id", j.key),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if wait := time.Since(j.enqueued); wait > time.Second {
		logger.Debug(j.ctx, "tg.serial", "job.delayed",
			slog.Int64("user_id", j.key),
			slog.Duration("wait", logger.RoundMS(wait)),
		)
	}
	j.run(j.ctx)
}
