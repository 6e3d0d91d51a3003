package graphstore

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// SessionPool bounds the number of concurrent graph-store operations in
// flight against a single Store, the way a pooled client for a networked
// graph database would bound concurrent sessions against its server.
// BoltStore itself serializes writes internally (bbolt allows only one
// writer transaction at a time) and this pool's limit is irrelevant to
// correctness there, but the coordinator talks to Store only through
// this pool so a future networked backend can be dropped in without the
// coordinator's call sites changing.
type SessionPool struct {
	store Store
	sem   *semaphore.Weighted
}

// NewSessionPool wraps store with a pool admitting at most maxConcurrent
// operations at a time.
func NewSessionPool(store Store, maxConcurrent int64) *SessionPool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &SessionPool{store: store, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Session is a checked-out ticket to use the pooled Store. Release must
// be called exactly once to return the ticket to the pool.
type Session struct {
	pool  *SessionPool
	store Store
}

// Acquire blocks until a session slot is free or ctx is done.
func (p *SessionPool) Acquire(ctx context.Context) (*Session, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("graphstore: acquire session: %w", err)
	}
	return &Session{pool: p, store: p.store}, nil
}

// Release returns the session's slot to the pool. Safe to call once;
// calling it twice will over-release the underlying semaphore.
func (s *Session) Release() {
	s.pool.sem.Release(1)
}

// Store exposes the pooled Store for the duration of this session.
func (s *Session) Store() Store {
	return s.store
}

// With acquires a session, runs fn against the pooled Store, and
// releases the session regardless of fn's outcome.
func (p *SessionPool) With(ctx context.Context, fn func(Store) error) error {
	session, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer session.Release()
	return fn(session.Store())
}

func (p *SessionPool) Close() error {
	return p.store.Close()
}
