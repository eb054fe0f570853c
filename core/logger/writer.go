package logger

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves log output off the caller's goroutine. Lines reach the
// sinks in order and are flushed whenever the queue runs dry. Flush requests
// travel through the same queue, so Flush returns only after every earlier
// Write hit the sinks.
type asyncWriter struct {
	queue chan writeOp
	done  chan struct{}
	sinks []*bufio.Writer

	life   sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

type writeOp struct {
	line []byte
	ack  chan error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue: make(chan writeOp, 256),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for op := range w.queue {
		if op.ack != nil {
			op.ack <- w.flush()
			continue
		}
		for _, sink := range w.sinks {
			if _, err := sink.Write(op.line); err != nil {
				w.fail(err)
			}
		}
		if len(w.queue) == 0 {
			w.fail(w.flush())
		}
	}
	w.fail(w.flush())
}

// Write queues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.life.RLock()
	defer w.life.RUnlock()
	if w.closed {
		return errors.New("logger: writer closed")
	}
	w.queue <- writeOp{line: bytes.Clone(p)}
	return nil
}

// Flush waits until everything written so far reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	w.life.RLock()
	if w.closed {
		w.life.RUnlock()
		return w.firstErr()
	}
	w.queue <- writeOp{ack: ack}
	w.life.RUnlock()
	if err := <-ack; err != nil {
		return err
	}
	return w.firstErr()
}

// Close drains the queue and returns the first write error seen.
func (w *asyncWriter) Close() error {
	w.life.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.life.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
