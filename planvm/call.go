package planvm

import (
	"context"
	"fmt"
)

// Call runs a closure to completion on the calling goroutine and returns its
// result. Promises returned by async closures are awaited before returning,
// so callers always see a settled value.
func Call(ctx context.Context, fn *Closure, args []any) (any, error) {
	sub := NewVM(ctx, fn.Fun)
	sub.Scope = fn.Env.NewChild()
	bindParams(sub.Scope, fn.Fun, args)

	var runErr error
	for _, err := range sub.Run {
		if err != nil {
			runErr = err
			break
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	value := sub.Value()
	if p, ok := value.(*Promise); ok {
		return p.Wait(ctx)
	}
	return value, nil
}

// CallCallable invokes a script closure or a native function from Go code,
// outside any running VM (used by the bounded-concurrency map primitive and
// groupBy-style callbacks).
func CallCallable(ctx context.Context, callee any, args []any) (any, error) {
	switch fn := callee.(type) {
	case *Closure:
		return Call(ctx, fn, args)
	case NativeFunc:
		value, err := fn.Func(&VM{Ctx: ctx}, args)
		if err != nil {
			return nil, err
		}
		if p, ok := value.(*Promise); ok {
			return p.Wait(ctx)
		}
		return value, nil
	}
	return nil, fmt.Errorf("not a callable value: %T", callee)
}
