package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithLockSerializesSameUser(t *testing.T) {
	l := NewLocker()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(7, func() error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, l.active(), "entries are released once idle")
}

func TestWithLockReturnsError(t *testing.T) {
	l := NewLocker()
	boom := errors.New("boom")
	assert.ErrorIs(t, l.WithLock(1, func() error { return boom }), boom)
	assert.Equal(t, 0, l.active())
}

func TestWithLockDifferentUsersDoNotBlock(t *testing.T) {
	l := NewLocker()
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = l.WithLock(1, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan struct{})
	go func() {
		_ = l.WithLock(2, func() error { return nil })
		close(done)
	}()
	<-done
	close(release)
}
