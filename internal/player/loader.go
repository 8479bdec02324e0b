package player

import (
	"fmt"
	"sync"
)

// Loader makes the embed api available for every Controller sharing it. Concurrent Awaits
// share one request. A failed load is final for its waiters, but the next Await starts a new
// request; nothing is retried on its own.
type Loader struct {
	request func() error

	mu      sync.Mutex
	current *loadAttempt
}

type loadAttempt struct {
	once    sync.Once
	done    bool
	err     error
	waiters []func(error)
}

func NewLoader(request func() error) *Loader {
	return &Loader{
		request: request,
		current: &loadAttempt{},
	}
}

// NewLoadedLoader returns a Loader for an environment where the embed api is already present.
func NewLoadedLoader() *Loader {
	l := NewLoader(nil)
	l.Resolve(nil)
	return l
}

// Await calls fn once the api is available or the current attempt has failed. fn may run on
// the calling goroutine when the load already succeeded.
func (l *Loader) Await(fn func(error)) {
	l.mu.Lock()
	a := l.current
	l.mu.Unlock()

	a.once.Do(func() {
		l.mu.Lock()
		done := a.done
		l.mu.Unlock()
		if done || l.request == nil {
			return
		}

		if err := l.request(); err != nil {
			l.resolve(a, fmt.Errorf("%w: %w", ErrAPILoad, err))
		}
	})

	l.mu.Lock()
	if !a.done {
		a.waiters = append(a.waiters, fn)
		l.mu.Unlock()
		return
	}
	err := a.err
	l.mu.Unlock()

	fn(err)
}

// Resolve completes the current attempt. Calls after a success are ignored; after a failure
// they apply to the next attempt.
func (l *Loader) Resolve(err error) {
	l.mu.Lock()
	a := l.current
	l.mu.Unlock()

	l.resolve(a, err)
}

func (l *Loader) resolve(a *loadAttempt, err error) {
	l.mu.Lock()
	if a.done {
		l.mu.Unlock()
		return
	}
	a.done = true
	a.err = err
	waiters := a.waiters
	a.waiters = nil
	if err != nil && l.current == a {
		l.current = &loadAttempt{}
	}
	l.mu.Unlock()

	for _, fn := range waiters {
		fn(err)
	}
}
