package session

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locker serializes work per user. Entries are reference counted and removed
// once no caller holds or waits for them, so idle users cost nothing.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*lockEntry)}
}

// WithLock runs fn while holding the lock of user.
func (l *Locker) WithLock(user int64, fn func() error) error {
	entry := l.acquire(user)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		l.release(user)
	}()
	return fn()
}

func (l *Locker) acquire(user int64) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[user]
	if !ok {
		entry = &lockEntry{}
		l.locks[user] = entry
	}
	entry.refs++
	return entry
}

func (l *Locker) release(user int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[user]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, user)
	}
}

func (l *Locker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
