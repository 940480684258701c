package service

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/cove/agent-demo/internal/errors"
)

// TurnLocker gives one caller at a time the right to run a turn for a session.
// The returned release func must be called exactly once.
type TurnLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// LocalTurnLocker is an in-process keyed mutex, used when no Redis is configured.
type LocalTurnLocker struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	held chan struct{}
	refs int
}

func NewLocalTurnLocker(wait time.Duration) *LocalTurnLocker {
	return &LocalTurnLocker{
		wait:  wait,
		locks: make(map[string]*turnLock),
	}
}

func (l *LocalTurnLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	lock := l.ref(sessionID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case lock.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lock.held
				l.unref(sessionID)
			})
		}, nil
	case <-ctx.Done():
		l.unref(sessionID)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(sessionID)
		return nil, apperrors.Conflict("Another message for this session is still being processed")
	}
}

func (l *LocalTurnLocker) ref(sessionID string) *turnLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &turnLock{held: make(chan struct{}, 1)}
		l.locks[sessionID] = lock
	}
	lock.refs++
	return lock
}

func (l *LocalTurnLocker) unref(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock := l.locks[sessionID]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, sessionID)
	}
}
