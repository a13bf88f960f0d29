package envs

import (
	"fmt"
	"sync"

	"github.com/reusee/taiplan/planvm"
	"github.com/reusee/taiplan/syncs"
)

// mapPrimitive is the only fan-out construct the plan surface has. It runs
// fn(item) for every element with at most ceiling calls in flight, and the
// i-th result slot always belongs to the i-th item no matter which call
// settles first.
//
// A non-list first argument is a programmer error, rejected synchronously
// before the promise is created.
func mapPrimitive(ceiling int) planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "map",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("map takes (items, fn), got %d arguments", len(args))
			}
			items, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("map: first argument must be a list, got %T", args[0])
			}
			callee := args[1]
			ctx := vm.Ctx

			return planvm.Go(ctx, func() (any, error) {
				sem := syncs.NewSemaphore(ceiling)
				results := make([]any, len(items))
				var wg sync.WaitGroup
				var mu sync.Mutex
				var firstErr error

				for i, item := range items {
					// acquiring in the spawning loop guarantees call
					// ceiling+1 never starts before one of the first
					// ceiling settles
					sem.Acquire()
					wg.Add(1)
					go func(i int, item any) {
						defer wg.Done()
						defer sem.Release()
						res, err := planvm.CallCallable(ctx, callee, []any{item})
						if err != nil {
							mu.Lock()
							if firstErr == nil {
								firstErr = fmt.Errorf("map item %d: %w", i, err)
							}
							mu.Unlock()
							return
						}
						results[i] = res
					}(i, item)
				}
				wg.Wait()

				if firstErr != nil {
					return nil, firstErr
				}
				return results, nil
			}), nil
		},
	}
}
