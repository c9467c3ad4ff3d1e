// Package engine composes every component into the running router: a
// single-writer event loop (the packet loop) that owns all mutable state,
// with sockets and timers posting work into it rather than mutating state
// directly from their own goroutines.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Env is readable from any goroutine. Only Dispatch (and the helpers built
// on it) may be used to actually touch AppState; everything else here is
// read-only configuration and plumbing.
type Env struct {
	DispatchChannel chan<- func(*AppState) error
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
}

// Dispatch queues fun to run on the event-loop goroutine without waiting
// for it to complete. A panic inside fun cancels the whole router rather
// than crashing a socket-reader goroutine silently. If the context is
// cancelled before the queue accepts fun, Dispatch gives up rather than
// blocking a caller goroutine forever against a loop that has exited.
func (e *Env) Dispatch(fun func(*AppState) error) {
	defer func() {
		if r := recover(); r != nil {
			e.Cancel(fmt.Errorf("panic in dispatched func: %v", r))
		}
	}()
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait queues fun and blocks until it completes, returning its
// result. Used by the control port, which needs a synchronous answer.
func (e *Env) DispatchWait(fun func(*AppState) (any, error)) (any, error) {
	type result struct {
		val any
		err error
	}
	if err := e.Context.Err(); err != nil {
		return nil, err
	}
	ret := make(chan result, 1)
	wrapped := func(s *AppState) error {
		v, err := fun(s)
		ret <- result{v, err}
		return err
	}
	select {
	case e.DispatchChannel <- wrapped:
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
	select {
	case r := <-ret:
		return r.val, r.err
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

// ScheduleTask dispatches fun once after delay.
func (e *Env) ScheduleTask(fun func(*AppState) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.Dispatch(fun)
	})
}

// RepeatTask dispatches fun every delay until the context is cancelled.
// The first run happens after delay, not immediately — callers that need
// an immediate first run call Dispatch once themselves beforehand.
func (e *Env) RepeatTask(fun func(*AppState) error, delay time.Duration) {
	go func() {
		for e.Context.Err() == nil {
			time.Sleep(delay)
			if e.Context.Err() != nil {
				return
			}
			e.Dispatch(fun)
		}
	}()
}
