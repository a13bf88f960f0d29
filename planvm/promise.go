package planvm

import (
	"context"
	"fmt"
	"sync"
)

// Promise is the settled-once result of an asynchronous call. Bridged
// capabilities and async closures return a *Promise; OpAwait blocks on it.
type Promise struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func NewPromise() *Promise {
	return &Promise{
		done: make(chan struct{}),
	}
}

func Resolved(value any) *Promise {
	p := NewPromise()
	p.Resolve(value)
	return p
}

func (p *Promise) Resolve(value any) {
	p.once.Do(func() {
		p.value = value
		close(p.done)
	})
}

func (p *Promise) Reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *Promise) Wait(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go runs fn on its own goroutine and returns a promise for its result.
// A panic in fn rejects the promise instead of crashing the process.
func Go(ctx context.Context, fn func() (any, error)) *Promise {
	p := NewPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(fmt.Errorf("panic: %v", r))
			}
		}()
		value, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(value)
	}()
	_ = ctx
	return p
}
