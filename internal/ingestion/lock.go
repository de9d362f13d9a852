package ingestion

import (
	"sync"
	"sync/atomic"
)

// SourceLocks provides non-blocking per-source lock semantics so the same
// source is never ingested twice at once
type SourceLocks struct {
	mu    sync.Mutex
	locks map[string]*atomic.Int32 // 0 = unlocked, 1 = locked
}

// NewSourceLocks creates an empty lock table
func NewSourceLocks() *SourceLocks {
	return &SourceLocks{locks: make(map[string]*atomic.Int32)}
}

// TryAcquire attempts to lock source without blocking
func (l *SourceLocks) TryAcquire(source string) bool {
	l.mu.Lock()
	state, ok := l.locks[source]
	if !ok {
		state = &atomic.Int32{}
		l.locks[source] = state
	}
	l.mu.Unlock()
	return state.CompareAndSwap(0, 1)
}

// Release unlocks source.
// Must only be called by the goroutine that acquired it.
func (l *SourceLocks) Release(source string) {
	l.mu.Lock()
	state, ok := l.locks[source]
	l.mu.Unlock()
	if ok {
		state.Store(0)
	}
}
