package storage

import (
	"context"
	"sync"
)

var _ Locker = (*MemoryLocker)(nil)

// MemoryLocker serializes writers within one process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]chan struct{})}
}

func (l *MemoryLocker) Lock(ctx context.Context, athleteID string) (func(), error) {
	l.mu.Lock()
	sem, ok := l.locks[athleteID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[athleteID] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
