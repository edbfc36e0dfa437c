package booking

import (
	"context"
	"time"
)

// Future is the pending result of a command run in the background.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func runAsync[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the command has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the command finishes or ctx is done. Giving up on the
// wait does not stop the command; cancel the context it was started with.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Async runs booking commands in the background. Each command observes the
// context it was started with.
type Async struct {
	svc Service
}

func NewAsync(svc Service) *Async {
	return &Async{svc: svc}
}

func (a *Async) Create(ctx context.Context, in CreateInput) *Future[*Request] {
	return runAsync(func() (*Request, error) { return a.svc.Create(ctx, in) })
}

func (a *Async) Accept(ctx context.Context, id, actorID string) *Future[*Request] {
	return runAsync(func() (*Request, error) { return a.svc.Accept(ctx, id, actorID) })
}

func (a *Async) Decline(ctx context.Context, id, actorID, reason string) *Future[*Request] {
	return runAsync(func() (*Request, error) { return a.svc.Decline(ctx, id, actorID, reason) })
}

func (a *Async) RequestReschedule(ctx context.Context, id, actorID string, proposedAt time.Time, reason string) *Future[*Request] {
	return runAsync(func() (*Request, error) { return a.svc.RequestReschedule(ctx, id, actorID, proposedAt, reason) })
}

func (a *Async) Cancel(ctx context.Context, id, actorID string) *Future[*Request] {
	return runAsync(func() (*Request, error) { return a.svc.Cancel(ctx, id, actorID) })
}
